package sdk

import "fmt"

// ResultKind identifies which variant a Response carries.
type ResultKind string

const (
	// ResultSuccess carries a value.
	ResultSuccess ResultKind = "success"

	// ResultError carries an ErrorEnvelope describing a failed method.
	ResultError ResultKind = "error"

	// ResultNotImplemented is the marker for a method name with no handler.
	ResultNotImplemented ResultKind = "not_implemented"
)

// String returns the string representation of the kind.
func (k ResultKind) String() string {
	return string(k)
}

// IsValid checks if the kind is one of the known variants.
func (k ResultKind) IsValid() bool {
	switch k {
	case ResultSuccess, ResultError, ResultNotImplemented:
		return true
	default:
		return false
	}
}

// ErrorEnvelope describes a method that was recognized but failed.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Response is the reply to one MethodCall.
// Exactly one variant is set: Value for success, Error for error,
// neither for not-implemented.
type Response struct {
	Kind  ResultKind     `json:"kind"`
	Value any            `json:"value,omitempty"`
	Error *ErrorEnvelope `json:"error,omitempty"`
}

// Success creates a success response carrying value.
func Success(value any) Response {
	return Response{Kind: ResultSuccess, Value: value}
}

// NotImplemented creates the not-implemented marker response.
func NotImplemented() Response {
	return Response{Kind: ResultNotImplemented}
}

// Failure creates an error response.
func Failure(code, message string, details any) Response {
	return Response{
		Kind: ResultError,
		Error: &ErrorEnvelope{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// IsSuccess reports whether the response carries a value.
func (r Response) IsSuccess() bool {
	return r.Kind == ResultSuccess
}

// IsNotImplemented reports whether the response is the not-implemented marker.
func (r Response) IsNotImplemented() bool {
	return r.Kind == ResultNotImplemented
}

// IsError reports whether the response carries an error envelope.
func (r Response) IsError() bool {
	return r.Kind == ResultError
}

// StringValue returns the success value as a string.
// ok is false for non-success responses and non-string values.
func (r Response) StringValue() (string, bool) {
	if !r.IsSuccess() {
		return "", false
	}
	s, ok := r.Value.(string)
	return s, ok
}

// Validate checks that the response holds exactly one variant.
func (r Response) Validate() error {
	switch r.Kind {
	case ResultSuccess:
		if r.Error != nil {
			return fmt.Errorf("success response must not carry an error")
		}
	case ResultError:
		if r.Error == nil {
			return fmt.Errorf("error response requires an error envelope")
		}
		if r.Value != nil {
			return fmt.Errorf("error response must not carry a value")
		}
	case ResultNotImplemented:
		if r.Value != nil || r.Error != nil {
			return fmt.Errorf("not-implemented response must be empty")
		}
	default:
		return fmt.Errorf("invalid response kind: %q", r.Kind)
	}
	return nil
}

// String renders the response for display.
func (r Response) String() string {
	switch r.Kind {
	case ResultSuccess:
		return fmt.Sprint(r.Value)
	case ResultError:
		if r.Error == nil {
			return "error"
		}
		if r.Error.Message != "" {
			return fmt.Sprintf("error %s: %s", r.Error.Code, r.Error.Message)
		}
		return fmt.Sprintf("error %s", r.Error.Code)
	case ResultNotImplemented:
		return "not implemented"
	default:
		return fmt.Sprintf("invalid response (%s)", r.Kind)
	}
}
