// Copyright © 2024 The ELPS authors

package lang

import (
	"bufio"
	"fmt"
	"io"
)

// ErrorKind classifies runtime errors.  Every kind is fatal to the
// evaluation in progress.
type ErrorKind uint

// ErrorKind constants.
const (
	ErrorUnknown ErrorKind = iota
	// UnboundIdentifier is produced when an identifier is not bound in any
	// visible frame.
	UnboundIdentifier
	// TypeMismatch is produced when an arithmetic operator or a conditional
	// receives a value of the wrong type.
	TypeMismatch
	// NotCallable is produced when the function position of an application
	// is not a closure.
	NotCallable
	// NotAnAddress is produced when a box operation receives something other
	// than an address.
	NotAnAddress
	// OutOfMemory is produced when the store cannot allocate a slot, after
	// collecting if the store collects.
	OutOfMemory
	// StackOverflow is produced when the call stack exceeds its maximum
	// height.
	StackOverflow
	// Cancelled is produced when the evaluation context is done.
	Cancelled
)

var errorKindStrings = []string{
	ErrorUnknown:      "error",
	UnboundIdentifier: "unbound-identifier",
	TypeMismatch:      "type-mismatch",
	NotCallable:       "not-callable",
	NotAnAddress:      "not-an-address",
	OutOfMemory:       "out-of-memory",
	StackOverflow:     "stack-overflow",
	Cancelled:         "cancelled",
}

func (k ErrorKind) String() string {
	if k >= ErrorKind(len(errorKindStrings)) {
		return errorKindStrings[ErrorUnknown]
	}
	return errorKindStrings[k]
}

// Sentinel errors for use with errors.Is.  Any *Error matches the sentinel
// of the same kind.
var (
	ErrUnboundIdentifier = &Error{Kind: UnboundIdentifier}
	ErrTypeMismatch      = &Error{Kind: TypeMismatch}
	ErrNotCallable       = &Error{Kind: NotCallable}
	ErrNotAnAddress      = &Error{Kind: NotAnAddress}
	ErrOutOfMemory       = &Error{Kind: OutOfMemory}
	ErrStackOverflow     = &Error{Kind: StackOverflow}
	ErrCancelled         = &Error{Kind: Cancelled}
)

// Error is a runtime error.  Stack holds a copy of the evaluator's call stack
// at the time the error occurred, when one was available.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Expr  *Expr
	Stack *CallStack
	Err   error
}

func errorf(kind ErrorKind, format string, v ...interface{}) *Error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, v...),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Unwrap returns the underlying cause of the error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// WriteTrace writes the error and a stack trace to w
func (e *Error) WriteTrace(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	var n int
	var err error
	wrote := func(_n int, _err error) bool {
		n += _n
		err = _err
		return err == nil
	}
	if !wrote(bw.WriteString(e.Error())) {
		return n, err
	}
	if !wrote(bw.WriteString("\n")) {
		return n, err
	}
	if e.Expr != nil {
		if !wrote(fmt.Fprintf(bw, "  in expression: %s\n", e.Expr)) {
			return n, err
		}
	}
	if e.Stack != nil {
		if !wrote(e.Stack.DebugPrint(bw)) {
			return n, err
		}
	}
	return n, bw.Flush()
}
