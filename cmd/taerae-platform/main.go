// Command taerae-platform serves the platform version handler as a plugin
// process. The host starts it; it is not meant to be run by hand.
package main

import (
	"fmt"
	"os"

	"github.com/taerae/platformchannel/internal/versionquery"
	"github.com/taerae/platformchannel/pkg/channelsdk"
)

func main() {
	cfg, err := channelsdk.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	channelsdk.Serve(versionquery.New(
		versionquery.WithChannel(cfg.GetString("channel", versionquery.DefaultChannel)),
	))
}
