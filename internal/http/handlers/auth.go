package handlers

import (
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/gearguard/internal/errors"
	"github.com/pribylovaa/gearguard/internal/http/middleware"
	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/password"
	"github.com/pribylovaa/gearguard/internal/service"
)

// RegisterUser - POST /users/register. Вход не выполняет.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	actor, _ := middleware.PrincipalFrom(r.Context())

	user, err := h.svc.RegisterUser(r.Context(), service.RegisterInput{
		Username: in.Username,
		Email:    in.Email,
		FullName: in.FullName,
		Password: password.Plaintext(in.Password),
		Role:     models.Role(strings.ToUpper(strings.TrimSpace(in.Role))),
		Actor:    actor,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{User: userFromModel(user)})
}

// LoginUser - POST /users/login. Логин - email или username.
func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	login := in.Email
	if strings.TrimSpace(login) == "" {
		login = in.Username
	}

	user, pair, err := h.svc.LoginUser(r.Context(), login, password.Plaintext(in.Password))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, loginResponse{
		User:         userFromModel(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// RefreshToken - POST /users/refreshToken. Токен берётся из cookie refreshToken,
// иначе из тела. При 401 cookie очищаются.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeOptional(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	var token string
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = strings.TrimSpace(c.Value)
	}
	if token == "" {
		token = strings.TrimSpace(in.RefreshToken)
	}

	_, pair, err := h.svc.RefreshToken(r.Context(), token)
	if err != nil {
		if status, _ := apierrors.ToHTTP(err); status == http.StatusUnauthorized {
			h.clearAuthCookies(w)
		}
		apierrors.WriteError(w, r, err)
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, tokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// LogoutUser - POST /users/logout (auth).
func (h *Handlers) LogoutUser(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.LogoutUser(r.Context(), p.UserID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, emptyResponse{})
}

// ChangePassword - POST /users/changePassword (auth).
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in changePasswordRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	err = h.svc.ChangePassword(r.Context(), p.UserID,
		password.Plaintext(in.OldPassword), password.Plaintext(in.NewPassword))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyResponse{})
}

// CurrentUser - GET /users/current-user (auth).
func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.CurrentUser(r.Context(), p.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: userFromModel(user)})
}
