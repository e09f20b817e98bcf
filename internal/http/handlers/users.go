package handlers

import (
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/gearguard/internal/errors"
	"github.com/pribylovaa/gearguard/internal/models"
)

// ChangeRole - PATCH /users/{id}/role (MANAGER).
func (h *Handlers) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in changeRoleRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	role := models.Role(strings.ToUpper(strings.TrimSpace(in.Role)))
	user, err := h.svc.ChangeRole(r.Context(), id, role)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: userFromModel(user)})
}

// AssignTeam - PUT /users/{id}/team (MANAGER).
func (h *Handlers) AssignTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in assignTeamRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	user, err := h.svc.AssignToTeam(r.Context(), id, in.TeamID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: userFromModel(user)})
}
