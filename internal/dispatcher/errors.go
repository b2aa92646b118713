package dispatcher

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind tells the caller what class of failure a response carries.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindLookup       ErrorKind = "lookup"
	KindPrecondition ErrorKind = "precondition"
	KindUnavailable  ErrorKind = "unavailable"
	KindUnknownTool  ErrorKind = "unknown_tool"
	KindQueueFull    ErrorKind = "queue_full"
	KindTimeout      ErrorKind = "timeout"
	KindInternal     ErrorKind = "internal"
)

var (
	// ErrUnknownTool is returned for a tool with no handler.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrQueueFull is returned when a buffered tool cannot take more work.
	ErrQueueFull = errors.New("queue full")
)

// KindError attaches a kind to an error.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string {
	return e.Err.Error()
}

func (e *KindError) Unwrap() error {
	return e.Err
}

// Errorf builds a KindError.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &KindError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classifier maps a handler error to its kind. It returns "" to defer to
// the default rules.
type Classifier func(error) ErrorKind

func classify(err error, custom Classifier) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	if custom != nil {
		if k := custom(err); k != "" {
			return k
		}
	}
	switch {
	case errors.Is(err, ErrUnknownTool):
		return KindUnknownTool
	case errors.Is(err, ErrQueueFull):
		return KindQueueFull
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	}
	return KindInternal
}
