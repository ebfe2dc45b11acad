package errors

import "errors"

// AppError pairs a machine readable code with a message that is safe to show
// to a caller. Err is the underlying cause and only ever reaches the logs.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New returns an AppError without a cause.
func New(code, message string) error {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code, message string, err error) error {
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode reports whether the outermost AppError in err's chain carries code.
func IsCode(err error, code string) bool {
	return Code(err) == code && code != ""
}

// Code returns the code of the outermost AppError, or an empty string.
func Code(err error) string {
	if appErr, ok := asAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// Message returns the caller facing text. Errors that are not AppErrors are
// returned verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := asAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// Cause returns the error wrapped by the outermost AppError, or nil.
func Cause(err error) error {
	if appErr, ok := asAppError(err); ok {
		return appErr.Err
	}
	return nil
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
