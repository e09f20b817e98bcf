package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	apierrors "github.com/pribylovaa/gearguard/internal/errors"
	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/log"
	"github.com/pribylovaa/gearguard/internal/service"
)

// AccessTokenCookie - имя cookie с access-токеном.
const AccessTokenCookie = "accessToken"

// TokenValidator проверяет access-токен (реализуется *service.Service).
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*models.Principal, error)
}

type principalKey struct{}

// WithPrincipal кладёт аутентифицированного субъекта в контекст.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom достаёт субъекта из контекста.
func PrincipalFrom(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*models.Principal)
	return p, ok && p != nil
}

// Authenticate требует валидный access-токен: заголовок Authorization: Bearer
// или cookie accessToken (заголовок приоритетнее). Без токена - 401.
func Authenticate(v TokenValidator) Middleware {
	return authenticate(v, true)
}

// OptionalAuthenticate кладёт субъекта в контекст, если токен предъявлен и валиден.
// Запрос без токена или с невалидным токеном обрабатывается как анонимный.
func OptionalAuthenticate(v TokenValidator) Middleware {
	return authenticate(v, false)
}

func authenticate(v TokenValidator, required bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				if required {
					apierrors.WriteError(w, r, service.ErrUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			p, err := v.ValidateAccessToken(r.Context(), token)
			if err != nil {
				if !required {
					log.From(r.Context()).Debug("optional_token_ignored", "err", err)
					next.ServeHTTP(w, r)
					return
				}
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := WithPrincipal(r.Context(), p)
			ctx = log.With(ctx, "user_id", p.UserID.String(), "role", string(p.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только субъектов с одной из ролей; ставится после Authenticate.
func RequireRole(roles ...models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				apierrors.WriteError(w, r, service.ErrUnauthorized)
				return
			}

			if !slices.Contains(roles, p.Role) {
				log.From(r.Context()).Warn("role_denied", "path", r.URL.Path)
				apierrors.WriteError(w, r, service.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
			if token := strings.TrimSpace(auth[len(prefix):]); token != "" {
				return token
			}
		}
	}

	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}

	return ""
}
