// Package apperr is the error taxonomy of the client. Every failure that
// reaches a handler is classified into one Kind so the UI can decide how to
// present it without knowing which collaborator produced it.
package apperr

import (
	"errors"
	"strings"
)

type Kind int

const (
	Unknown Kind = iota
	Network
	Auth
	Validation
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	case Auth:
		return "auth"
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a classified failure. Msg is the text shown to the user; Err is
// the underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of kind k with message msg.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

// Wrap classifies err as kind k. The message is taken from err.
func Wrap(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Msg: err.Error(), Err: err}
}

// Invalid is shorthand for New(Validation, msg).
func Invalid(msg string) *Error {
	return New(Validation, msg)
}

// KindOf returns the kind of the first *Error in err's chain, Unknown
// otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err is classified as k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

var authMessages = []struct {
	substr string
	msg    string
}{
	{"invalid login credentials", "Couldn’t verify. Check email/password."},
	{"rate limit", "Too many attempts. Please wait a bit."},
	{"already", "This email is already registered."},
}

// HumanizeAuth turns a raw auth failure text into the message shown on the
// sign-in form. Unrecognized texts pass through unchanged.
func HumanizeAuth(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Auth error"
	}
	lower := strings.ToLower(raw)
	for _, m := range authMessages {
		if strings.Contains(lower, m.substr) {
			return m.msg
		}
	}
	return raw
}

// Message is the text a handler writes to state for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == Auth {
			return HumanizeAuth(e.Error())
		}
		return e.Error()
	}
	return err.Error()
}

// MessageOr is Message, or fallback when err carries no text of its own.
func MessageOr(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg == "" {
		return fallback
	}
	if msg := Message(err); msg != "" {
		return msg
	}
	return fallback
}
