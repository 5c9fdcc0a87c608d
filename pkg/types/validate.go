package types

import "strings"

// Validation messages returned to callers.
const (
	MsgInvalidData           = "Item data is missing or invalid."
	MsgNameRequired          = "Item name is required and must be a non-empty string."
	MsgDescriptionRequired   = "Item description is required and must be a non-empty string."
	MsgNameIfProvided        = "Item name must be a non-empty string if provided."
	MsgDescriptionIfProvided = "Item description must be a non-empty string if provided."
)

// ValidateFull checks a create payload: name and description must both be
// present and valid. Rules run in order and the first failure is returned.
func ValidateFull(f Fields) error {
	if f == nil {
		return invalidData()
	}
	if !validText(f[FieldName]) {
		return &ValidationError{Field: FieldName, Message: MsgNameRequired}
	}
	if !validText(f[FieldDescription]) {
		return &ValidationError{Field: FieldDescription, Message: MsgDescriptionRequired}
	}
	return nil
}

// ValidatePartial checks an update patch: name and description are checked
// only when present. A present null is invalid.
func ValidatePartial(f Fields) error {
	if f == nil {
		return invalidData()
	}
	if f.Has(FieldName) && !validText(f[FieldName]) {
		return &ValidationError{Field: FieldName, Message: MsgNameIfProvided}
	}
	if f.Has(FieldDescription) && !validText(f[FieldDescription]) {
		return &ValidationError{Field: FieldDescription, Message: MsgDescriptionIfProvided}
	}
	return nil
}

// validText reports whether v is a string with content after trimming.
func validText(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

func invalidData() *ValidationError {
	return &ValidationError{Message: MsgInvalidData}
}
