package user

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures returned by the user service.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidArgument
	KindNotFound
	KindDuplicateEmail
	KindEmailTaken
	KindPersistence
	KindNotification
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotFound:
		return "not found"
	case KindDuplicateEmail:
		return "duplicate email"
	case KindEmailTaken:
		return "email taken"
	case KindPersistence:
		return "persistence failure"
	case KindNotification:
		return "notification failure"
	default:
		return "unknown"
	}
}

// Error is the single error type the service hands back to callers.
// Op names the operation, Key the identifying field (id or email) when it is
// safe to report.
type Error struct {
	Kind    ErrorKind
	Op      string
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Key)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so errors.Is(err, ErrNotFound) works for any not-found
// error regardless of operation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Key == ""
}

var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrDuplicateEmail  = &Error{Kind: KindDuplicateEmail}
	ErrEmailTaken      = &Error{Kind: KindEmailTaken}
	ErrPersistence     = &Error{Kind: KindPersistence}
	ErrNotification    = &Error{Kind: KindNotification}
)

// ErrDuplicateKey is returned by repositories when a write violates the
// unique email constraint.
var ErrDuplicateKey = errors.New("duplicate key")

// KindOf returns the kind of a service error, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind ErrorKind, op, key, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Key: key, Message: message, Err: err}
}

// InvalidArgument builds a KindInvalidArgument error.
func InvalidArgument(op, key, message string) *Error {
	return newError(KindInvalidArgument, op, key, message, nil)
}

// NotFound builds a KindNotFound error.
func NotFound(op, key string) *Error {
	return newError(KindNotFound, op, key, "user not found", nil)
}

// DuplicateEmail builds a KindDuplicateEmail error.
func DuplicateEmail(op, email string, cause error) *Error {
	return newError(KindDuplicateEmail, op, email, "user with this email already exists", cause)
}

// EmailTaken builds a KindEmailTaken error.
func EmailTaken(op, email string, cause error) *Error {
	return newError(KindEmailTaken, op, email, "email already taken", cause)
}

// Persistence wraps a repository failure.
func Persistence(op, key string, cause error) *Error {
	return newError(KindPersistence, op, key, "persistence failure", cause)
}

// Notification wraps a publisher failure.
func Notification(op, key string, cause error) *Error {
	return newError(KindNotification, op, key, "notification failure", cause)
}
