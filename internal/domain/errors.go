package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSubjectInvalid   = errors.New("subject invalid")
	ErrTransportFailure = errors.New("transport failure")
)

type SubjectError struct {
	Reason string
}

func (e *SubjectError) Error() string {
	return fmt.Sprintf("subject invalid: %s", e.Reason)
}

func (e *SubjectError) Is(target error) bool {
	return target == ErrSubjectInvalid
}

// TransportError wraps a connection-level failure of the push channel.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}
