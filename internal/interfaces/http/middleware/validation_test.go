package middleware

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex240101/oxapampa/internal/interfaces/http/dto"
)

type documentForm struct {
	Type   string `json:"type" validate:"required,doctype"`
	Series string `json:"series" validate:"omitempty,series"`
	Note   string `form:"note" validate:"max=5"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name  string
		form  documentForm
		valid bool
	}{
		{"receipt", documentForm{Type: "receipt", Series: "B001"}, true},
		{"invoice lower-case series", documentForm{Type: "invoice", Series: "f001"}, true},
		{"credit note default series", documentForm{Type: "credit_note"}, true},
		{"unknown type", documentForm{Type: "ticket"}, false},
		{"series wrong letter", documentForm{Type: "receipt", Series: "X001"}, false},
		{"series too long", documentForm{Type: "receipt", Series: "B0001"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.form)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	v := newValidator()
	err := v.Struct(documentForm{Type: "ticket", Series: "Z9", Note: "too long"})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)

	details, ok := resp.Error.Details.([]dto.ValidationDetail)
	require.True(t, ok)
	require.Len(t, details, 3)
	assert.Equal(t, "type", details[0].Field)
	assert.Contains(t, details[0].Message, "invoice")
	assert.Equal(t, "series", details[1].Field)
	assert.Equal(t, "note", details[2].Field)
}

func TestFormatValidationErrors_Malformed(t *testing.T) {
	resp := FormatValidationErrors(errors.New("unexpected EOF"), "")
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
}
