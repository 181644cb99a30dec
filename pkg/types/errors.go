package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of parse or evaluation failure.
type ErrorCode string

// Error codes, grouped by family.
const (
	// S0xxx: lexical and syntax errors raised by the parser.
	ErrStringNotClosed      ErrorCode = "S0101"
	ErrSyntaxError          ErrorCode = "S0201"
	ErrUnterminatedGroup    ErrorCode = "S0202"
	ErrIncompleteTernary    ErrorCode = "S0203"
	ErrMissingOperand       ErrorCode = "S0204"
	ErrTrailingInput        ErrorCode = "S0205"
	ErrEmptyExpression      ErrorCode = "S0206"
	ErrUnknownOperator      ErrorCode = "S0207"
	ErrMaxNestingExceeded   ErrorCode = "S0208"
	ErrInvalidSerializedAST ErrorCode = "S0301"

	// T1xxx: operand type errors.
	ErrNotANumber            ErrorCode = "T1001"
	ErrNotAString            ErrorCode = "T1002"
	ErrNotABoolean           ErrorCode = "T1003"
	ErrPredicateNotBoolean   ErrorCode = "T1004"
	ErrConditionNotBoolean   ErrorCode = "T1005"
	ErrBetweenOperand        ErrorCode = "T1006"
	ErrNotACollection        ErrorCode = "T1007"
	ErrUnsupportedIndex      ErrorCode = "T1008"
	ErrArgumentCountMismatch ErrorCode = "T1009"

	// D1xxx: evaluation errors.
	ErrIndexOutOfRange ErrorCode = "D1001"
	ErrKeyNotFound     ErrorCode = "D1002"
	ErrInvalidRegex    ErrorCode = "D1003"
	ErrCallFailed      ErrorCode = "D1004"
	ErrStackOverflow   ErrorCode = "D1005"
	ErrCanceled        ErrorCode = "D1006"
	ErrInvalidArgument ErrorCode = "D1007"

	// U1xxx: name resolution errors.
	ErrUndefinedVariable ErrorCode = "U1001"
	ErrUndefinedFunction ErrorCode = "U1002"
	ErrUndefinedProperty ErrorCode = "U1003"
	ErrUndefinedMethod   ErrorCode = "U1004"
	ErrNotAFunction      ErrorCode = "U1005"
)

// Error is a structured parse or evaluation error.
//
// Parse errors carry the cursor position at which the failure was detected.
// Evaluation errors carry Position -1 because AST nodes are position-free.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new error.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Errorf creates an evaluation error (Position -1) with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...), -1)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, types.NewError(types.ErrKeyNotFound, "", -1)) matches by class.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// Code returns the error code of err if it is (or wraps) an *Error.
func Code(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
