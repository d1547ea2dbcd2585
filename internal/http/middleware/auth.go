package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charismabi/handson/internal/auth"
)

type contextKey string

const (
	ContextKeyClaims contextKey = "claims"
	ContextKeyBearer contextKey = "bearer"
)

// TokenParser valida o token de acesso.
type TokenParser interface {
	ParseAndValidate(token string) (*auth.Claims, error)
}

// Auth valida o bearer e injeta claims e token bruto no contexto.
func Auth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}
			token := strings.TrimSpace(parts[1])

			claims, err := parser.ParseAndValidate(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			ctx = context.WithValue(ctx, ContextKeyBearer, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims recupera as claims do contexto.
func GetClaims(ctx context.Context) *auth.Claims {
	val, _ := ctx.Value(ContextKeyClaims).(*auth.Claims)
	return val
}

// GetSubject recupera o subject do contexto.
func GetSubject(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.SubjectID()
	}
	return ""
}

// GetRoles recupera os papéis do contexto.
func GetRoles(ctx context.Context) []string {
	if c := GetClaims(ctx); c != nil {
		return c.AllRoles()
	}
	return nil
}

// GetBearer devolve o token recebido, repassado ao serviço de autenticação.
func GetBearer(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyBearer).(string)
	return val
}

// RequireRoles exige pelo menos um dos papéis informados, sem diferenciar caixa.
func RequireRoles(required ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(required))
	for _, role := range required {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			allowed[role] = struct{}{}
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range GetRoles(r.Context()) {
				if _, ok := allowed[strings.ToLower(role)]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado para o seu nível de acesso")
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
