package handler

import (
	"net/http"
	"strings"

	"github.com/pastrypal/pastrypal-backend/internal/auth/jwt"
	"github.com/pastrypal/pastrypal-backend/pkg/actor"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/httputil"
)

// Authenticate resolves the Bearer token into an actor on the request
// context. Requests without a valid token are rejected; public kiosk routes
// are mounted outside this middleware.
func Authenticate(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				httputil.Error(w, errors.Unauthorized("authentication required"))
				return
			}

			a, err := manager.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				httputil.Error(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
		})
	}
}
