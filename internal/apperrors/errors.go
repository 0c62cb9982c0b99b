package apperrors

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Sentinel errors for the three caller-error classes the API surfaces.
// Handlers map these to 404, 409 and 422 respectively.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// NotFoundf wraps ErrNotFound with a formatted message
func NotFoundf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

// Conflictf wraps ErrConflict with a formatted message
func Conflictf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConflict, format, args...)
}

// Validationf wraps ErrValidation with a formatted message
func Validationf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// IsNotFound reports whether err is classified as a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is classified as a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation reports whether err is classified as a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// FromDB classifies a gorm error into the API taxonomy. Connections must be
// opened with TranslateError so duplicate-key violations arrive as
// gorm.ErrDuplicatedKey regardless of the driver.
func FromDB(err error, format string, args ...interface{}) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrapf(ErrNotFound, format, args...)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrapf(ErrConflict, format, args...)
	default:
		return errors.Wrapf(err, format, args...)
	}
}
