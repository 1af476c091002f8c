package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-attendance/internal/models"
	"github.com/pribylovaa/go-attendance/internal/service"
	"github.com/pribylovaa/go-attendance/internal/transport/http/apierrors"
)

type claimsKey struct{}

// Resolver разрешает access-токен в claims вызывающего.
type Resolver interface {
	ResolveCurrentUser(ctx context.Context, accessToken string) (*models.Claims, error)
}

// RequireBearer извлекает Bearer-токен из Authorization, проверяет его через
// Resolver и кладёт claims в контекст (см. ClaimsFrom).
// Без токена или с недействительным токеном отвечает 401 с WWW-Authenticate.
func RequireBearer(res Resolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				apierrors.WriteError(w, r, fmt.Errorf("missing bearer token: %w", service.ErrInvalidToken))
				return
			}

			claims, err := res.ResolveCurrentUser(r.Context(), raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom возвращает claims, положенные RequireBearer.
func ClaimsFrom(ctx context.Context) (*models.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*models.Claims)
	return c, ok && c != nil
}

// bearerToken разбирает "Bearer <token>"; схема без учёта регистра.
func bearerToken(header string) (string, bool) {
	const scheme = "bearer"

	header = strings.TrimSpace(header)
	if len(header) <= len(scheme)+1 || !strings.EqualFold(header[:len(scheme)], scheme) || header[len(scheme)] != ' ' {
		return "", false
	}

	tok := strings.TrimSpace(header[len(scheme)+1:])
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", false
	}

	return tok, true
}
