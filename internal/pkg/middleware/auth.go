package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apperror "marketplace/internal/errors"
	"marketplace/internal/pkg/token"
)

// ContextKey é o tipo das chaves que o middleware anexa ao contexto.
type ContextKey int

const (
	CallerKey ContextKey = iota
	RequestIDKey
)

// Caller representa a conta que invoca a operação (o Caller Context),
// extraída do token JWT e anexada ao contexto.
type Caller struct {
	AccountID string
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// NewAuthMiddleware cria uma função de middleware que valida um JWT e anexa
// o Caller ao contexto da requisição.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// 1. Extrair o Token do Header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || tokenString == "" {
				writeError(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			// 2. Validar o Token
			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				writeError(w, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			// 3. Anexar o Caller ao Contexto
			ctx := WithCaller(r.Context(), Caller{AccountID: claims.AccountID})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// WithCaller anexa o Caller ao contexto.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// GetCallerFromContext é uma função utilitária para extrair o Caller no handler.
func GetCallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(Caller)
	return caller, ok
}

func writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	})
}
