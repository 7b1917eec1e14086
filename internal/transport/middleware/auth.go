package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wattline/contractor-erp/internal/auth"
	"github.com/wattline/contractor-erp/pkg/logger"
)

// ActorContext authenticates the request against the auth collaborator's
// access token and injects the actor identity. Mutating payroll routes sit
// behind it.
func ActorContext(jwtSecret string, lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			actor, err := auth.ParseToken(strings.TrimPrefix(authHeader, "Bearer "), jwtSecret)
			if err != nil {
				lg.Warn("token rejected", "error", err, "path", r.URL.Path)
				writeUnauthorized(w, "invalid token")
				return
			}

			ctx := auth.ContextWithActor(r.Context(), actor)
			ctx = logger.With(ctx, "actorID", actor.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
