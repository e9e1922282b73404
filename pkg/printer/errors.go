package printer

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a printing failure by what the user has to do about it.
type ErrorKind string

const (
	KindCapabilityUnsupported ErrorKind = "capability_unsupported"
	KindNoDeviceAuthorized    ErrorKind = "no_device_authorized"
	KindSelectionCancelled    ErrorKind = "selection_cancelled"
	KindDeviceBusy            ErrorKind = "device_busy_or_unreachable"
	KindNoOutputChannel       ErrorKind = "no_output_channel"
	KindTransferFailed        ErrorKind = "transfer_failed"
	KindDeviceTimeout         ErrorKind = "device_timeout"
	KindUnknown               ErrorKind = "unknown"
)

// Sentinel errors, one per kind. Use errors.Is to test a driver error.
var (
	ErrCapabilityUnsupported = &Error{Kind: KindCapabilityUnsupported}
	ErrNoDeviceAuthorized    = &Error{Kind: KindNoDeviceAuthorized}
	ErrSelectionCancelled    = &Error{Kind: KindSelectionCancelled}
	ErrDeviceBusy            = &Error{Kind: KindDeviceBusy}
	ErrNoOutputChannel       = &Error{Kind: KindNoOutputChannel}
	ErrTransferFailed        = &Error{Kind: KindTransferFailed}
	ErrDeviceTimeout         = &Error{Kind: KindDeviceTimeout}
)

// Error is a classified device error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := "printer: " + UserMessage(e.Kind)
	if e.Op != "" {
		msg = fmt.Sprintf("printer: %s: %s", e.Op, UserMessage(e.Kind))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrTransferFailed)
// holds for every transfer failure regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the most specific printer error in err's chain.
// Context deadline errors are reported as KindDeviceTimeout.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindDeviceTimeout
	}
	return KindUnknown
}

// UserMessage is the human readable guidance for a kind.
func UserMessage(kind ErrorKind) string {
	switch kind {
	case KindCapabilityUnsupported:
		return "printing to devices is not supported on this host; use the print dialog instead"
	case KindNoDeviceAuthorized:
		return "no printer found; connect a printer and grant access to it"
	case KindSelectionCancelled:
		return "no device selected"
	case KindDeviceBusy:
		return "printer is busy or unreachable; check that it is powered on, connected and not in use"
	case KindNoOutputChannel:
		return "device has no output channel; it is not a supported printer"
	case KindTransferFailed:
		return "failed to send data to the printer"
	case KindDeviceTimeout:
		return "printer did not respond in time"
	default:
		return "printing failed"
	}
}

// Retryable reports whether retrying the same job can succeed without the
// user changing hardware or host.
func Retryable(kind ErrorKind) bool {
	switch kind {
	case KindCapabilityUnsupported, KindNoOutputChannel:
		return false
	}
	return true
}
