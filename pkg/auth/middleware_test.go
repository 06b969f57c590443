package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	jwtService := NewJWTService(testSecret)
	valid, err := jwtService.GenerateJWT("bridge", time.Now().Add(time.Hour))
	require.NoError(t, err)

	var gotSource interface{}
	handler := Middleware(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSource = r.Context().Value(SourceKey)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{"Missing header", "", http.StatusUnauthorized},
		{"Wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"Bad token", "Bearer nope", http.StatusUnauthorized},
		{"Valid token", "Bearer " + valid, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/messages", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
	assert.Equal(t, "bridge", gotSource)
}
