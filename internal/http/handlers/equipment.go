package handlers

import (
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/gearguard/internal/errors"
	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/storage"
)

func (h *Handlers) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	var in createEquipmentRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	e, err := h.svc.CreateEquipment(r.Context(), in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, equipmentFromModel(e))
}

func (h *Handlers) GetEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	e, err := h.svc.EquipmentByID(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, equipmentFromModel(e))
}

// ListEquipment - GET /equipment?status=&teamId=&departmentId=.
func (h *Handlers) ListEquipment(w http.ResponseWriter, r *http.Request) {
	var filter storage.EquipmentFilter

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st := models.EquipmentStatus(strings.ToUpper(raw))
		filter.Status = &st
	}

	teamID, err := queryUUID(r, "teamId")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	filter.TeamID = teamID

	departmentID, err := queryUUID(r, "departmentId")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	filter.DepartmentID = departmentID

	items, err := h.svc.ListEquipment(r.Context(), filter)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]equipmentDTO, 0, len(items))
	for i := range items {
		out = append(out, equipmentFromModel(&items[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"equipment": out})
}
