package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kleptokart/kleptokart/pkg/validate"
)

var (
	// ErrValidation wraps every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means the listing does not exist.
	ErrNotFound = errors.New("listing not found")
	// ErrConflict means the listing exists but was already sold, usually to
	// a concurrent buyer.
	ErrConflict = errors.New("listing already sold")
)

// ValidationError lists the input fields that failed.
type ValidationError struct {
	Fields validate.Errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields.Fields(), ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MissingRequired reports whether any failure is a missing required field.
func (e *ValidationError) MissingRequired() bool { return e.Fields.HasRule("required") }

// StorageError is any failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }
