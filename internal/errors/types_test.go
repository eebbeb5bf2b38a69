package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeHTTPMapping(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, NewBusinessError(ErrCodeExtractionFailed, "m").HTTPCode)
	assert.Equal(t, http.StatusBadRequest, NewBusinessError(ErrCodeEmptyContent, "m").HTTPCode)
	assert.Equal(t, http.StatusBadRequest, NewBusinessError(ErrCodeSanitizeCollapse, "m").HTTPCode)
	assert.Equal(t, http.StatusBadGateway, NewExternalError(ErrCodeEmbeddingProvider, "m").HTTPCode)
	assert.Equal(t, http.StatusBadGateway, NewExternalError(ErrCodeGenerationProvider, "m").HTTPCode)
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("index cache x").HTTPCode)
	assert.Equal(t, http.StatusInternalServerError, NewSystemError(ErrCodeIndexPersist, "m").HTTPCode)
}

func TestAppError_UnwrapChain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewSystemError(ErrCodeIndexCorrupt, "reload failed").WithCause(cause)

	assert.Contains(t, err.Error(), "reload failed")
	assert.Contains(t, err.Error(), "root cause")
	assert.Equal(t, cause, err.Unwrap())
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	inner := NewExternalError(ErrCodeEmbeddingProvider, "embed failed")
	wrapped := fmt.Errorf("retrieve context: %w", inner)

	assert.True(t, HasCode(wrapped, ErrCodeEmbeddingProvider))
	assert.False(t, HasCode(wrapped, ErrCodeGenerationProvider))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeEmbeddingProvider))
}

func TestGetAppError_WrapsPlainErrors(t *testing.T) {
	plain := fmt.Errorf("boom")
	appErr := GetAppError(plain)
	assert.Equal(t, ErrCodeInternalServer, appErr.Code)
	assert.Equal(t, plain, appErr.Cause)

	original := NewValidationError("bad input")
	assert.Same(t, original, GetAppError(original))
}
