package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apierrors "github.com/pribylovaa/gearguard/internal/errors"
	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/service"
)

func (h *Handlers) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var in createRequestRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	req, err := h.svc.CreateRequest(r.Context(), in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, requestFromModel(req))
}

func (h *Handlers) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	req, err := h.svc.RequestByID(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, requestFromModel(req))
}

// ListRequests - GET /requests?equipmentId=&teamId=&technicianId=&stage=&overdue=true.
func (h *Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	var (
		filter service.RequestListFilter
		err    error
	)

	q := r.URL.Query()

	if filter.EquipmentID, err = queryUUID(r, "equipmentId"); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if filter.TeamID, err = queryUUID(r, "teamId"); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if filter.TechnicianID, err = queryUUID(r, "technicianId"); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if raw := strings.TrimSpace(q.Get("stage")); raw != "" {
		st := models.Stage(strings.ToUpper(raw))
		filter.Stage = &st
	}

	if raw := q.Get("overdue"); raw != "" {
		filter.OverdueOnly, err = strconv.ParseBool(raw)
		if err != nil {
			apierrors.WriteError(w, r, badRequest(fmt.Errorf("query overdue: %w", err)))
			return
		}
	}

	items, err := h.svc.ListRequests(r.Context(), filter)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]requestDTO, 0, len(items))
	for i := range items {
		out = append(out, requestFromModel(&items[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

// UpdateRequest - PATCH /requests/{id}. Ответ несёт исход каскада списания.
func (h *Handlers) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in updateRequestRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	res, err := h.svc.UpdateRequest(r.Context(), id, in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateResultToResponse(res))
}

// ApplyScrapCascade - POST /requests/{id}/cascade (MANAGER): повтор каскада списания.
func (h *Handlers) ApplyScrapCascade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.ApplyScrapCascade(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateResultToResponse(res))
}
