package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gestaozabele/farmdesk/internal/auth"
	"github.com/gestaozabele/farmdesk/internal/session"
)

type contextKey string

const (
	ContextKeyManager contextKey = "auth_manager"
	ContextKeySession contextKey = "auth_session"
)

// Session liga o Manager à sessão do cliente e injeta a visão no contexto.
func Session(manager *auth.Manager, backend session.Backend) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bound := manager.Bind(backend.Bind(w, r))
			ctx := context.WithValue(r.Context(), ContextKeyManager, bound)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetManager recupera o Manager ligado à requisição.
func GetManager(ctx context.Context) *auth.Manager {
	m, _ := ctx.Value(ContextKeyManager).(*auth.Manager)
	return m
}

// GetSession recupera a sessão validada por RequireAuth.
func GetSession(ctx context.Context) auth.Session {
	s, _ := ctx.Value(ContextKeySession).(auth.Session)
	return s
}

// GetSubject recupera o id do usuário autenticado.
func GetSubject(ctx context.Context) string {
	return GetSession(ctx).UserID
}

// RequireAuth exige sessão autenticada e não expirada.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := GetManager(r.Context())
		if m == nil || !m.IsAuthenticated(r.Context()) {
			writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente ou expirada")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, m.CurrentUser(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole garante que o usuário atende ao papel mínimo.
func RequireRole(required auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := GetManager(r.Context())
			if m == nil || !m.CheckRole(r.Context(), required) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito ao papel "+string(required))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
