package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/dayplan-app/dayplan/pkg/user"
)

// publicPaths are reachable without a session token.
var publicPaths = []string{
	"/api/auth/signup",
	"/api/auth/login",
	"/api/auth/google/login",
	"/api/auth/google/callback",
}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {

	// Validate the Bearer token and load the principal into the context.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if isPublic(req.URL.Path) {
				next.ServeHTTP(w, req)
				return
			}

			token := bearerToken(req)
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			userId, err := deps.AuthService.ValidateToken(token)
			if err != nil {
				log.Debugf("token rejected: %v", err)
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := req.Context()
			u, err := deps.UserService.GetUser(ctx, userId)
			if errors.Is(err, user.ErrUserNotFound) {
				http.Error(w, "user not found", http.StatusForbidden)
				return
			} else if err != nil {
				log.Errorf("failed to load user %s: %v", userId, err)
				http.Error(w, "failed to load user", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, req.WithContext(user.WithUser(ctx, u)))
		})
	})
}

func isPublic(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

func bearerToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
