package handlers

import (
	"net/http"
	"time"

	"github.com/pribylovaa/gearguard/internal/http/middleware"
	"github.com/pribylovaa/gearguard/internal/models"
)

// RefreshTokenCookie - имя cookie с refresh-токеном.
const RefreshTokenCookie = "refreshToken"

// setAuthCookies выставляет HttpOnly-cookie с токенами; срок жизни совпадает с TTL токена.
func (h *Handlers) setAuthCookies(w http.ResponseWriter, pair *models.TokenPair) {
	now := h.now()
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, pair.AccessToken, pair.AccessExpiresAt, now))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresAt, now))
}

// clearAuthCookies удаляет оба cookie (Max-Age=0 в заголовке).
func (h *Handlers) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   h.cookies.Domain,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   h.cookies.Secure,
			SameSite: h.cookies.SameSite,
		})
	}
}

func (h *Handlers) cookie(name, value string, exp, now time.Time) *http.Cookie {
	maxAge := int(exp.Sub(now).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   maxAge,
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	}
}
