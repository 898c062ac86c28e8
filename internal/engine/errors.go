package engine

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrBinding     = errors.New("binding error")
	ErrFormat      = errors.New("format error")
	ErrPersistence = errors.New("persistence error")
	ErrSource      = errors.New("source error")
	ErrLocked      = errors.New("question locked")
)

// Error carries the kind of an engine failure and the question it concerns.
type Error struct {
	Kind       error
	QuestionID string
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.QuestionID != "" {
		msg = fmt.Sprintf("%s: question %s", msg, e.QuestionID)
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func bindingf(qid string, err error, format string, args ...any) error {
	return &Error{Kind: ErrBinding, QuestionID: qid, Msg: fmt.Sprintf(format, args...), Err: err}
}

func formatf(qid string, err error, format string, args ...any) error {
	return &Error{Kind: ErrFormat, QuestionID: qid, Msg: fmt.Sprintf(format, args...), Err: err}
}

func persistencef(qid string, err error, format string, args ...any) error {
	return &Error{Kind: ErrPersistence, QuestionID: qid, Msg: fmt.Sprintf(format, args...), Err: err}
}

func sourcef(qid string, err error, format string, args ...any) error {
	return &Error{Kind: ErrSource, QuestionID: qid, Msg: fmt.Sprintf(format, args...), Err: err}
}

func lockedf(qid string) error {
	return &Error{Kind: ErrLocked, QuestionID: qid}
}

// ValidationError reports a schema violation to the question sheet editor.
func ValidationError(err error) error {
	return &Error{Kind: ErrValidation, Err: err}
}
