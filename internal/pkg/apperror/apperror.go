package apperror

import "net/http"

// AppError is a custom error type that includes an HTTP status code and a user-facing message.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404, 409)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Unavailable marks err as a transient storage failure. Callers may retry.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return Wrap(err, http.StatusServiceUnavailable, "booking store unavailable, please retry")
}

// IsUnavailable reports whether err was produced by Unavailable.
func IsUnavailable(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == http.StatusServiceUnavailable
}
