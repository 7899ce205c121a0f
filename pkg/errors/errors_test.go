package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomyHTTPStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"validation", NewValidationError("bad input"), http.StatusBadRequest},
		{"not found", NewNotFoundError("block"), http.StatusNotFound},
		{"unauthorized", NewUnauthorizedError("nope"), http.StatusUnauthorized},
		{"timeout", NewTimeoutError("graph query"), http.StatusGatewayTimeout},
		{"rate limit", NewRateLimitError(10, "1m"), http.StatusTooManyRequests},
		{"persistence", NewPersistenceError("create block", errors.New("boom")), http.StatusServiceUnavailable},
		{"embedding", NewEmbeddingError("provider down", nil), http.StatusBadGateway},
		{"answer generation", NewAnswerGenerationError("model offline", nil), http.StatusBadGateway},
		{"internal", NewInternalError("oops"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.HTTPStatus)
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFoundError("block")
	assert.Equal(t, "block not found", err.Message)
}

func TestTypeChecks(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("block")))
	assert.True(t, IsValidation(NewValidationError("x")))
	assert.True(t, IsEmbedding(NewEmbeddingError("x", nil)))
	assert.True(t, IsPersistence(NewPersistenceError("x", nil)))
	assert.True(t, IsTimeout(NewTimeoutError("x")))

	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestTypeChecksSeeThroughWrapping(t *testing.T) {
	inner := NewNotFoundError("block")
	wrapped := fmt.Errorf("loading target: %w", inner)

	assert.True(t, IsNotFound(wrapped))

	app := GetAppError(wrapped)
	require.NotNil(t, app)
	assert.Equal(t, ErrorTypeNotFound, app.Type)
}

func TestCausePreserved(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPersistenceError("create block", cause)

	assert.ErrorIs(t, err, cause)
}
