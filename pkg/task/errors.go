package task

import (
	"errors"
	"fmt"

	"github.com/sameehj/dataworks/pkg/sandbox"
)

// ErrorKind classifies handler failures.
type ErrorKind string

const (
	KindInternal     ErrorKind = "internal_error"
	KindAccessDenied ErrorKind = "access_denied"
	KindNotFound     ErrorKind = "not_found"
	KindUpstream     ErrorKind = "upstream_error"
	KindExternalTool ErrorKind = "external_tool_error"
	KindCodec        ErrorKind = "codec_error"
	KindQuery        ErrorKind = "query_error"
)

// Error is a handler failure. Msg is safe to show to callers; Err carries the
// underlying cause for logs only.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Upstream(msg string, err error) *Error     { return newError(KindUpstream, msg, err) }
func ExternalTool(msg string, err error) *Error { return newError(KindExternalTool, msg, err) }
func Codec(msg string, err error) *Error        { return newError(KindCodec, msg, err) }
func Query(msg string, err error) *Error        { return newError(KindQuery, msg, err) }
func NotFound(msg string, err error) *Error     { return newError(KindNotFound, msg, err) }

// FromSandbox turns a sandbox fault into a task error, keeping other errors
// under the given fallback kind.
func FromSandbox(err error, fallback ErrorKind, msg string) *Error {
	switch {
	case errors.Is(err, sandbox.ErrAccessDenied):
		return newError(KindAccessDenied, sandbox.ErrAccessDenied.Error(), err)
	case errors.Is(err, sandbox.ErrNotFound):
		return newError(KindNotFound, msg, err)
	default:
		return newError(fallback, msg, err)
	}
}

// KindOf reports the failure kind of err.
func KindOf(err error) ErrorKind {
	var te *Error
	switch {
	case errors.As(err, &te):
		return te.Kind
	case errors.Is(err, sandbox.ErrAccessDenied):
		return KindAccessDenied
	case errors.Is(err, sandbox.ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// PublicMessage returns the short, caller-facing text for err. It never
// includes filesystem paths or collaborator output.
func PublicMessage(err error) string {
	var te *Error
	if errors.As(err, &te) && te.Msg != "" {
		return te.Msg
	}
	switch {
	case errors.Is(err, sandbox.ErrAccessDenied):
		return sandbox.ErrAccessDenied.Error()
	case errors.Is(err, sandbox.ErrNotFound):
		return sandbox.ErrNotFound.Error()
	default:
		return "Task failed"
	}
}
