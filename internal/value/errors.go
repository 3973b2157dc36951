package value

import (
	"errors"
	"fmt"
)

// ErrKind classifies script-level failures. Every error raised by the value
// layer, the selector engine, or the executor carries one of these.
type ErrKind string

const (
	ParseError       ErrKind = "ParseError"
	TypeError        ErrKind = "TypeError"
	RangeError       ErrKind = "RangeError"
	DecodeError      ErrKind = "DecodeError"
	NoSuchField      ErrKind = "NoSuchField"
	WrongVariant     ErrKind = "WrongVariant"
	IndexOutOfRange  ErrKind = "IndexOutOfRange"
	EmptyOption      ErrKind = "EmptyOption"
	UndefinedName    ErrKind = "UndefinedName"
	CallError        ErrKind = "CallError"
	AssertionFailure ErrKind = "AssertionFailure"
	NotImplemented   ErrKind = "NotImplementedError"
)

type Error struct {
	ErrKind ErrKind
	Message string
	// Left and Right carry the evaluated operands of a failed assertion
	// for diagnostic display.
	Left, Right Value
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrKind, e.Message)
}

func Errorf(kind ErrKind, format string, args ...interface{}) *Error {
	return &Error{ErrKind: kind, Message: fmt.Sprintf(format, args...)}
}

// AssertErr builds an AssertionFailure carrying both evaluated sides.
func AssertErr(op string, left, right Value) *Error {
	return &Error{
		ErrKind: AssertionFailure,
		Message: fmt.Sprintf("%s %s %s", left, op, right),
		Left:    left,
		Right:   right,
	}
}

// KindOf reports the ErrKind of err, or "" if err is not a script error.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrKind
	}
	return ""
}
