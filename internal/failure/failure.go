// Package failure classifies the ways a labeling run can fail so callers
// can branch on the failure class instead of inspecting error strings.
package failure

import (
	"errors"
	"fmt"
)

// Kind names a failure class.
type Kind string

const (
	KindFetch       Kind = "fetch"
	KindPersist     Kind = "persist"
	KindParse       Kind = "parse"
	KindRender      Kind = "render"
	KindComposition Kind = "composition"
	KindDelegation  Kind = "delegation"
)

// Error is a classified failure. StatusCode is set when the failure came
// from a remote HTTP peer that answered with a non-success status.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failure", e.Kind)
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Brief describes the failure by kind and peer status only, leaving out the
// operation and cause.
func (e *Error) Brief() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failure (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s failure", e.Kind)
}

// New wraps err as a failure of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Status wraps err as a failure of the given kind that carries the peer's
// HTTP status code.
func Status(kind Kind, op string, code int, err error) *Error {
	return &Error{Kind: kind, Op: op, StatusCode: code, Err: err}
}

// KindOf reports the kind of the first classified failure in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// Is reports whether err carries a failure of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// StatusCode returns the peer status code attached to err, or 0.
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// IsLabeling reports whether err came from the labeling step, in-process or
// delegated.
func IsLabeling(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	switch k {
	case KindParse, KindRender, KindComposition, KindDelegation:
		return true
	}
	return false
}
