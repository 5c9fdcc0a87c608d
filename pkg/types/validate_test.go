package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFull(t *testing.T) {
	tests := []struct {
		name      string
		fields    Fields
		wantField string
		wantMsg   string
	}{
		{
			name:   "name and description present",
			fields: Fields{"name": "Laptop", "description": "Powerful computing device"},
		},
		{
			name:   "extra fields are ignored",
			fields: Fields{"name": "Laptop", "description": "x", "price": json.Number("999")},
		},
		{
			name:      "empty name",
			fields:    Fields{"name": "", "description": "x"},
			wantField: FieldName,
			wantMsg:   MsgNameRequired,
		},
		{
			name:      "blank name without description fails on name first",
			fields:    Fields{"name": "   "},
			wantField: FieldName,
			wantMsg:   MsgNameRequired,
		},
		{
			name:      "valid name without description",
			fields:    Fields{"name": "Laptop"},
			wantField: FieldDescription,
			wantMsg:   MsgDescriptionRequired,
		},
		{
			name:      "whitespace description",
			fields:    Fields{"name": "Laptop", "description": "\t\n "},
			wantField: FieldDescription,
			wantMsg:   MsgDescriptionRequired,
		},
		{
			name:      "numeric name",
			fields:    Fields{"name": json.Number("42"), "description": "x"},
			wantField: FieldName,
			wantMsg:   MsgNameRequired,
		},
		{
			name:      "null description",
			fields:    Fields{"name": "Laptop", "description": nil},
			wantField: FieldDescription,
			wantMsg:   MsgDescriptionRequired,
		},
		{
			name:      "empty payload stops at name",
			fields:    Fields{},
			wantField: FieldName,
			wantMsg:   MsgNameRequired,
		},
		{
			name:    "nil payload is invalid data",
			fields:  nil,
			wantMsg: MsgInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFull(tt.fields)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}
}

func TestValidateFull_FirstFailureWins(t *testing.T) {
	err := ValidateFull(Fields{"name": "   "})
	require.Error(t, err)
	assert.Equal(t, MsgNameRequired, err.Error())

	err = ValidateFull(Fields{"name": "ok"})
	require.Error(t, err)
	assert.Equal(t, MsgDescriptionRequired, err.Error())
}

func TestValidatePartial(t *testing.T) {
	tests := []struct {
		name    string
		patch   Fields
		wantMsg string
	}{
		{name: "empty patch", patch: Fields{}},
		{name: "name only", patch: Fields{"name": "Laptop Pro"}},
		{name: "description only", patch: Fields{"description": "Faster"}},
		{name: "unknown fields only", patch: Fields{"color": "silver"}},
		{name: "blank name", patch: Fields{"name": " "}, wantMsg: MsgNameIfProvided},
		{name: "null name", patch: Fields{"name": nil}, wantMsg: MsgNameIfProvided},
		{name: "boolean description", patch: Fields{"description": true}, wantMsg: MsgDescriptionIfProvided},
		{
			name:    "name checked before description",
			patch:   Fields{"name": "", "description": ""},
			wantMsg: MsgNameIfProvided,
		},
		{name: "nil patch", patch: nil, wantMsg: MsgInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePartial(tt.patch)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestValidationError_InvalidDataUnwrap(t *testing.T) {
	err := ValidateFull(nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrInvalidData)

	err = ValidateFull(Fields{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrInvalidData)
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		op   string
		want string
	}{
		{OpGet, "Item with ID 999 not found."},
		{OpUpdate, "Item with ID 999 not found."},
		{OpDelete, "Item with ID 999 not found for deletion."},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			err := error(&NotFoundError{ID: "999", Op: tt.op})
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, IsNotFound(err))
			assert.False(t, IsValidation(err))
		})
	}
}
