// Package types defines the Item entity, the Store and Backend interfaces,
// the validation policy shared by every backend, and the standard error
// types surfaced by the item store.
//
// Every backend returns *ValidationError and *NotFoundError values that
// callers classify with errors.Is against ErrValidation and ErrNotFound.
package types
