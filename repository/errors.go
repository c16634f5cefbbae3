package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("record already exists")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

// ValidationError names the offending field. errors.Is(err, ErrValidation) holds for it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// DuplicateError names the conflicting field. errors.Is(err, ErrDuplicate) holds for it.
type DuplicateError struct {
	Field   string
	Message string
}

func (e *DuplicateError) Error() string {
	return e.Message
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

func duplicate(field, message string) error {
	return &DuplicateError{Field: field, Message: message}
}

// translate maps gorm sentinel errors onto the repository ones.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
