package types

import (
	"errors"
	"fmt"
)

// Store operation errors.
var (
	ErrNotFound     = errors.New("item not found")
	ErrValidation   = errors.New("item validation failed")
	ErrInvalidData  = errors.New("item data is missing or invalid")
	ErrDuplicateID  = errors.New("duplicate item ID")
	ErrIDsExhausted = errors.New("item ID counter exhausted")
)

// Payload decoding errors. These are not caller-correctable validation
// failures and surface as server errors.
var (
	ErrMalformedJSON = errors.New("malformed JSON")
	ErrNotObject     = errors.New("JSON value is not an object")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Operations that can report a missing item.
const (
	OpGet    = "get"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ValidationError reports the first validation rule a payload violated.
// Message is caller-facing and returned verbatim in HTTP responses.
type ValidationError struct {
	Field   string // "name", "description", or empty when the payload itself is unusable.
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) match; payload-shape failures
// additionally match ErrInvalidData.
func (e *ValidationError) Unwrap() []error {
	if e.Field == "" {
		return []error{ErrValidation, ErrInvalidData}
	}
	return []error{ErrValidation}
}

// NotFoundError reports that no item with ID exists. Op selects the wording.
type NotFoundError struct {
	ID string
	Op string
}

func (e *NotFoundError) Error() string {
	if e.Op == OpDelete {
		return fmt.Sprintf("Item with ID %s not found for deletion.", e.ID)
	}
	return fmt.Sprintf("Item with ID %s not found.", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err is a missing-item failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
