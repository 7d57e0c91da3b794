package serrors

import "fmt"

// BaseError is a coded error carried across package boundaries. Code is a
// stable machine-readable identifier; Message is a short human-readable
// fallback.
type BaseError struct {
	Code    string
	Message string
}

func NewError(code, message string) *BaseError {
	return &BaseError{Code: code, Message: message}
}

func (e *BaseError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError attaches a field name to a coded error. Used for per-field
// validation results that are reported as data rather than raised.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

func NewFieldRequiredError(field string) FieldError {
	return FieldError{
		Field:   field,
		Code:    "FIELD_REQUIRED",
		Message: fmt.Sprintf("%s is required", field),
	}
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
