package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeDuplicateRequest, http.StatusConflict},
		{ErrCodeNumberingConflict, http.StatusConflict},
		{ErrCodeImportAborted, http.StatusUnprocessableEntity},
		{ErrCodeProvider, http.StatusBadGateway},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{"ERR_SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode(shared.CodeValidation))
	assert.Equal(t, ErrCodeNumberingConflict, NormalizeErrorCode(shared.CodeNumberingConflict))
	assert.Equal(t, ErrCodeProvider, NormalizeErrorCode(shared.CodeExternalProvider))
	assert.Equal(t, ErrCodeInvalidState, NormalizeErrorCode("INVALID_STATE"))
	// entity-specific codes such as INVALID_PRICE are input errors
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_PRICE"))
}

func TestEveryDomainCodeHasAStatus(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[apiCode]
		assert.True(t, ok, "no status for %s (from %s)", apiCode, domainCode)
	}
}
