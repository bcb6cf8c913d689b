package render

import "fmt"

// Kind classifies a failed render call.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConnectivity covers transport failures and timeouts.
	KindConnectivity
	// KindServer means the endpoint answered with a non-2xx status.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindServer:
		return "server-error"
	default:
		return "unknown"
	}
}

// Error is returned by Client.Render for every failure.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("render %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("render %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unreachable reports whether the renderer could not be reached or refused the request.
func (e *Error) Unreachable() bool {
	return e.Kind == KindConnectivity || e.Kind == KindServer
}
