package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/GlebRadaev/courierstats/pkg/utils"
)

type ContextKey string

const SourceKey ContextKey = "source"

type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

func Middleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := validator.ValidateToken(token)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), SourceKey, claims.Source)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
