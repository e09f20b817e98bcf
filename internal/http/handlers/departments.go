package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/gearguard/internal/errors"
)

// CreateDepartment - POST /departments (MANAGER).
func (h *Handlers) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var in createDepartmentRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, badRequest(err))
		return
	}

	d, err := h.svc.CreateDepartment(r.Context(), in.Name)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, departmentFromModel(d))
}

func (h *Handlers) ListDepartments(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListDepartments(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]departmentDTO, 0, len(items))
	for i := range items {
		out = append(out, departmentFromModel(&items[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"departments": out})
}
