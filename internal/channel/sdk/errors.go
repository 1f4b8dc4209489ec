package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors for common channel error conditions.
var (
	// ErrChannelNotFound is returned when no handler is bound to a channel.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrChannelAlreadyExists is returned when binding a channel twice.
	ErrChannelAlreadyExists = errors.New("channel already exists")

	// ErrInvalidManifest is returned when a plugin manifest fails validation.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrPluginShutdown is returned when calling a plugin that has been shut down.
	ErrPluginShutdown = errors.New("plugin has been shut down")

	// ErrVersionIncompatible is returned when SDK and plugin versions are incompatible.
	ErrVersionIncompatible = errors.New("incompatible version")

	// ErrTimeout is returned when a channel call times out.
	ErrTimeout = errors.New("operation timed out")

	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// ChannelError wraps an error with channel context.
type ChannelError struct {
	// Channel is the channel the call was sent on.
	Channel string

	// Method is the method that was being called, if any.
	Method string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ChannelError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("channel %s: %s: %v", e.Channel, e.Method, e.Err)
	}
	return fmt.Sprintf("channel %s: %v", e.Channel, e.Err)
}

// Unwrap returns the underlying error.
func (e *ChannelError) Unwrap() error {
	return e.Err
}

// NewChannelError creates a new channel error.
func NewChannelError(channel, method string, err error) *ChannelError {
	return &ChannelError{
		Channel: channel,
		Method:  method,
		Err:     err,
	}
}

// LoadError represents an error during plugin loading.
type LoadError struct {
	// Path is the path to the plugin that failed to load.
	Path string

	// Reason describes why loading failed.
	Reason string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load plugin %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to load plugin %q: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new load error.
func NewLoadError(path, reason string, err error) *LoadError {
	return &LoadError{
		Path:   path,
		Reason: reason,
		Err:    err,
	}
}

// MethodError is returned by method implementations that want to control
// the code placed in the error envelope.
type MethodError struct {
	Code    string
	Message string
	Details any
}

// Error implements the error interface.
func (e *MethodError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// NewMethodError creates a new method error.
func NewMethodError(code, message string, details any) *MethodError {
	return &MethodError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// IsChannelNotFound checks if the error is ErrChannelNotFound.
func IsChannelNotFound(err error) bool {
	return errors.Is(err, ErrChannelNotFound)
}

// IsCircuitOpen checks if the error is due to an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsTimeout checks if the error is ErrTimeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
