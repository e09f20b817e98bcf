package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/gearguard/internal/errors"
)

func (h *Handlers) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var in createTeamRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	team, err := h.svc.CreateTeam(r.Context(), in.Name)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, teamFromModel(team))
}

func (h *Handlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.svc.ListTeams(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]teamDTO, 0, len(teams))
	for i := range teams {
		out = append(out, teamFromModel(&teams[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"teams": out})
}
