// Package dispatch maps method names on a channel to the functions that
// answer them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

// MethodFunc answers a single recognized method.
type MethodFunc func(ctx context.Context, call sdk.MethodCall) (any, error)

// Entry binds a method name to its function.
type Entry struct {
	Name string
	Func MethodFunc
}

// Table is a fixed set of method entries. Names outside the set receive
// the not-implemented response.
type Table struct {
	entries map[string]MethodFunc
	names   []string
}

// New builds a table from entries. Names must be non-empty and unique.
func New(entries ...Entry) (*Table, error) {
	t := &Table{
		entries: make(map[string]MethodFunc, len(entries)),
		names:   make([]string, 0, len(entries)),
	}

	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("method name is required")
		}
		if e.Func == nil {
			return nil, fmt.Errorf("method %q has no function", e.Name)
		}
		if _, exists := t.entries[e.Name]; exists {
			return nil, fmt.Errorf("method %q registered twice", e.Name)
		}
		t.entries[e.Name] = e.Func
		t.names = append(t.names, e.Name)
	}
	slices.Sort(t.names)

	return t, nil
}

// MustNew is like New but panics on error. Use it for tables built from
// package-level constants.
func MustNew(entries ...Entry) *Table {
	t, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// HandleMethodCall implements sdk.MethodCallHandler.
func (t *Table) HandleMethodCall(ctx context.Context, call sdk.MethodCall) sdk.Response {
	fn, ok := t.entries[call.Method]
	if !ok {
		return sdk.NotImplemented()
	}

	value, err := fn(ctx, call)
	if err != nil {
		var methodErr *sdk.MethodError
		if errors.As(err, &methodErr) {
			return sdk.Failure(methodErr.Code, methodErr.Message, methodErr.Details)
		}
		return sdk.Failure("error", err.Error(), nil)
	}

	return sdk.Success(value)
}

// Has reports whether name is a recognized method.
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Methods returns the recognized method names in sorted order.
func (t *Table) Methods() []string {
	return slices.Clone(t.names)
}

// Len returns the number of recognized methods.
func (t *Table) Len() int {
	return len(t.names)
}
