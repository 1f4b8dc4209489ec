package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/taerae/platformchannel/adapter/cli"
	"github.com/taerae/platformchannel/internal/channel/sdk"
	"github.com/taerae/platformchannel/internal/versionquery"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

// InvokeResult is the reply to channel.invoke.
type InvokeResult struct {
	Channel string             `json:"channel"`
	Method  string             `json:"method"`
	Kind    string             `json:"kind"`
	Value   any                `json:"value,omitempty"`
	Error   *sdk.ErrorEnvelope `json:"error,omitempty"`
}

// ChannelDTO represents a channel in MCP responses.
type ChannelDTO struct {
	Channel  string   `json:"channel"`
	Status   string   `json:"status"`
	Builtin  bool     `json:"builtin"`
	PluginID string   `json:"plugin_id,omitempty"`
	Version  string   `json:"version,omitempty"`
	Methods  []string `json:"methods,omitempty"`
}

type invokeInput struct {
	Channel   string `json:"channel,omitempty"`
	Method    string `json:"method" jsonschema:"required"`
	Arguments any    `json:"arguments,omitempty"`
}

type platformVersionInput struct {
	Channel string `json:"channel,omitempty"`
}

// RegisterTools registers the channel tools on srv.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	srv.Tool("channel.invoke").
		Description("Send a method call on a channel. Unrecognized methods return kind not_implemented").
		Handler(invokeTool(deps.App))

	srv.Tool("channel.list").
		Description("List registered channels with their status").
		Handler(listTool(deps.App))

	srv.Tool("platform.version").
		Description("Get the host platform label and operating system version").
		Handler(platformVersionTool(deps.App))

	srv.Tool("cli.version").
		Description("Get CLI version information").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			return map[string]string{
				"version":   cli.Version,
				"commit":    cli.Commit,
				"buildDate": cli.BuildDate,
			}, nil
		})

	return nil
}

func invokeTool(app *cli.App) func(context.Context, invokeInput) (InvokeResult, error) {
	return func(ctx context.Context, input invokeInput) (InvokeResult, error) {
		if app.Executor == nil {
			return InvokeResult{}, errors.New("channel executor not available")
		}
		channel := strings.TrimSpace(input.Channel)
		if channel == "" {
			channel = app.DefaultChannel
		}

		resp, err := app.Executor.Invoke(ctx, channel, sdk.NewMethodCall(input.Method, input.Arguments))
		if err != nil {
			return InvokeResult{}, err
		}
		return InvokeResult{
			Channel: channel,
			Method:  input.Method,
			Kind:    resp.Kind.String(),
			Value:   resp.Value,
			Error:   resp.Error,
		}, nil
	}
}

func listTool(app *cli.App) func(context.Context, struct{}) ([]ChannelDTO, error) {
	return func(ctx context.Context, _ struct{}) ([]ChannelDTO, error) {
		if app.Registry == nil {
			return nil, errors.New("channel registry not available")
		}

		entries := app.Registry.List()
		result := make([]ChannelDTO, 0, len(entries))
		for _, entry := range entries {
			dto := ChannelDTO{
				Channel: entry.Channel,
				Status:  string(entry.Status),
				Builtin: entry.Builtin,
			}
			if entry.Manifest != nil {
				dto.PluginID = entry.Manifest.ID
				dto.Version = entry.Manifest.Version
				dto.Methods = entry.Manifest.Methods
			}
			result = append(result, dto)
		}
		return result, nil
	}
}

func platformVersionTool(app *cli.App) func(context.Context, platformVersionInput) (map[string]string, error) {
	invoke := invokeTool(app)
	return func(ctx context.Context, input platformVersionInput) (map[string]string, error) {
		result, err := invoke(ctx, invokeInput{
			Channel: input.Channel,
			Method:  versionquery.MethodGetPlatformVersion,
		})
		if err != nil {
			return nil, err
		}

		version, ok := result.Value.(string)
		if result.Kind != sdk.ResultSuccess.String() || !ok {
			return nil, fmt.Errorf("channel %s does not answer %s", result.Channel, versionquery.MethodGetPlatformVersion)
		}
		return map[string]string{
			"channel":  result.Channel,
			"platform": version,
		}, nil
	}
}
