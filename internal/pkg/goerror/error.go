// Package goerror carries the classification of a failure from the layer
// that detects it to the HTTP edge, where it becomes a status code and a
// stable error code string.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound marks a missing resource. Adapters wrap it so use cases can
// test with errors.Is without knowing the backend.
var ErrNotFound = errors.New("resource not found")

// Type is the broad class of an Error.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = [...]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code is the stable identifier sent to clients.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeCorrupted marks stored data that failed an integrity check.
	CodeCorrupted
	// CodeUnavailable marks a dependency or result that is not available
	// right now; the client may retry.
	CodeUnavailable
	CodePayloadTooLarge
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:        {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:   {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:    {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:        {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:        {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest:  {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:    {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:       {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:         {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeCorrupted:       {"ERROR_CODE_CORRUPTED", http.StatusUnprocessableEntity},
	CodeUnavailable:     {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
	CodePayloadTooLarge: {"ERROR_CODE_PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge},
}

// String returns the client-facing name. Unknown codes read as internal.
func (c Code) String() string {
	if e, ok := codes[c]; ok {
		return e.name
	}
	return codes[CodeInternal].name
}

// Status is the HTTP status a code maps to.
func (c Code) Status() int {
	if e, ok := codes[c]; ok {
		return e.status
	}
	return http.StatusInternalServerError
}

// Error is a classified failure. msg is shown to clients; err is the cause
// and is only logged.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String is a verbose form for logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }
func (e *Error) StatusCode() int           { return e.code.Status() }

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewUnavailable reports a temporary outage of a dependency with a message
// the client sees.
func NewUnavailable(err error, msg string) error {
	return &Error{err: err, msg: msg, errType: TypeServer, code: CodeUnavailable}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidInput wraps a validator error, or builds field errors from
// key/value pairs. An odd pair list is treated as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports an unparsable request. The first msg, if any,
// replaces the default message.
func NewInvalidFormat(msg ...string) error {
	m := "Invalid request body"
	if len(msg) > 0 {
		m = msg[0]
	}
	return &Error{msg: m, errType: TypeValidation, code: CodeInvalidFormat}
}
