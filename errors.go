package mavkit

import "fmt"

// ErrorKind discriminates the VehicleError taxonomy from spec.md §7.
type ErrorKind int

const (
	ErrConnectionFailed ErrorKind = iota
	ErrDisconnected
	ErrTimeout
	ErrCancelled
	ErrCommandRejected
	ErrIdentityUnknown
	ErrModeNotAvailable
	ErrMissionTransfer
	ErrMissionValidation
	ErrIO
)

func (k ErrorKind) String() string {
	switch k {
	case ErrConnectionFailed:
		return "connection-failed"
	case ErrDisconnected:
		return "disconnected"
	case ErrTimeout:
		return "timeout"
	case ErrCancelled:
		return "cancelled"
	case ErrCommandRejected:
		return "command-rejected"
	case ErrIdentityUnknown:
		return "identity-unknown"
	case ErrModeNotAvailable:
		return "mode-not-available"
	case ErrMissionTransfer:
		return "mission-transfer"
	case ErrMissionValidation:
		return "mission-validation"
	case ErrIO:
		return "io"
	default:
		return "unknown"
	}
}

// VehicleError is the single error type returned across the handle's
// public API. Callers compare against Kind or use the Is* helpers
// rather than asserting on the concrete type.
type VehicleError struct {
	Kind    ErrorKind
	Detail  string
	Command string
	Result  string
	Code    string
	Err     error
}

func (e *VehicleError) Error() string {
	switch e.Kind {
	case ErrConnectionFailed:
		return fmt.Sprintf("connection failed: %s", e.Detail)
	case ErrDisconnected:
		return "vehicle disconnected"
	case ErrTimeout:
		return "operation timed out"
	case ErrCancelled:
		return "operation cancelled"
	case ErrCommandRejected:
		return fmt.Sprintf("command %s rejected: %s", e.Command, e.Result)
	case ErrIdentityUnknown:
		return "no heartbeat received yet"
	case ErrModeNotAvailable:
		return fmt.Sprintf("mode %q not available for this vehicle", e.Detail)
	case ErrMissionTransfer:
		return fmt.Sprintf("mission transfer failed: [%s] %s", e.Code, e.Detail)
	case ErrMissionValidation:
		return fmt.Sprintf("mission validation failed: %s", e.Detail)
	case ErrIO:
		return fmt.Sprintf("mavlink i/o: %s", e.Detail)
	default:
		return "unknown vehicle error"
	}
}

func (e *VehicleError) Unwrap() error { return e.Err }

func newConnectionFailed(detail string) *VehicleError {
	return &VehicleError{Kind: ErrConnectionFailed, Detail: detail}
}

func newDisconnected() *VehicleError { return &VehicleError{Kind: ErrDisconnected} }

func newTimeout() *VehicleError { return &VehicleError{Kind: ErrTimeout} }

func newCancelled() *VehicleError { return &VehicleError{Kind: ErrCancelled} }

func newCommandRejected(command, result string) *VehicleError {
	return &VehicleError{Kind: ErrCommandRejected, Command: command, Result: result}
}

func newIdentityUnknown() *VehicleError { return &VehicleError{Kind: ErrIdentityUnknown} }

func newModeNotAvailable(name string) *VehicleError {
	return &VehicleError{Kind: ErrModeNotAvailable, Detail: name}
}

func newMissionTransfer(code, message string) *VehicleError {
	return &VehicleError{Kind: ErrMissionTransfer, Code: code, Detail: message}
}

func newMissionValidation(detail string) *VehicleError {
	return &VehicleError{Kind: ErrMissionValidation, Detail: detail}
}

func newIO(err error) *VehicleError {
	return &VehicleError{Kind: ErrIO, Detail: err.Error(), Err: err}
}

// IsTimeout reports whether err is a VehicleError of kind ErrTimeout.
func IsTimeout(err error) bool { return kindOf(err) == ErrTimeout }

// IsDisconnected reports whether err is a VehicleError of kind ErrDisconnected.
func IsDisconnected(err error) bool { return kindOf(err) == ErrDisconnected }

// IsCancelled reports whether err is a VehicleError of kind ErrCancelled.
func IsCancelled(err error) bool { return kindOf(err) == ErrCancelled }

func kindOf(err error) ErrorKind {
	var ve *VehicleError
	if e, ok := err.(*VehicleError); ok {
		ve = e
	} else {
		return -1
	}
	return ve.Kind
}
