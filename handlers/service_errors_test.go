package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/accounts-api/services"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestErrorTranslator_WriteError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
		expectedErrors  string
	}{
		{
			name:            "unauthenticated",
			err:             services.ErrUnauthenticated,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Unauthorized",
			expectedErrors:  "null",
		},
		{
			name:            "forbidden",
			err:             services.ErrForbidden,
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Forbidden",
			expectedErrors:  "null",
		},
		{
			name:            "not found keeps domain message",
			err:             services.WrapNotFound(services.ErrUserNotFound, errors.New("no rows")),
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "User not found",
			expectedErrors:  "null",
		},
		{
			name:            "validation lists fields",
			err:             services.NewValidationError(services.FieldError{Field: "role", Message: "role must be one of: user, admin"}),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation Error",
			expectedErrors:  `[{"field":"role","message":"role must be one of: user, admin"}]`,
		},
		{
			name:            "conflict",
			err:             services.ErrDuplicateEmail,
			expectedStatus:  http.StatusConflict,
			expectedMessage: "Email already in use",
			expectedErrors:  "null",
		},
		{
			name:            "rate limited",
			err:             services.ErrRateLimited,
			expectedStatus:  http.StatusTooManyRequests,
			expectedMessage: "Too many requests",
			expectedErrors:  "null",
		},
		{
			name:            "internal hides detail",
			err:             services.WrapInternal("failed to list users", errors.New("pq: connection reset")),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Internal Server Error",
			expectedErrors:  "null",
		},
		{
			name:            "internal sentinel",
			err:             services.ErrInternal,
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: services.ErrInternal.Message,
			expectedErrors:  "null",
		},
		{
			name:            "plain error is internal",
			err:             errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Internal Server Error",
			expectedErrors:  "null",
		},
	}

	translator := NewErrorTranslator(zap.NewNop(), false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			translator.WriteError(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil), tt.err)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			body := decodeEnvelope(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.expectedMessage, body.Message)
			assert.Equal(t, "null", string(body.Data))
			assert.JSONEq(t, tt.expectedErrors, string(body.Errors))
		})
	}
}

func TestErrorTranslator_DevelopmentExposesDetail(t *testing.T) {
	translator := NewErrorTranslator(zap.NewNop(), true)
	rec := httptest.NewRecorder()

	translator.WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.JSONEq(t, `{"detail":"pq: connection reset"}`, string(body.Errors))
}

func TestErrorTranslator_NilErrorWritesNothing(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorTranslator(zap.NewNop(), false).WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
}

func TestErrorTranslator_NotFoundRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorTranslator(zap.NewNop(), false).NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeEnvelope(t, rec).Message)
}
