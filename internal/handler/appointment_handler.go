package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"property-marketplace-api/internal/model"
)

func (h *Handler) RequestAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireRole(w, r, model.RoleClient)
	if !ok {
		return
	}
	var req struct {
		PropertyID        string `json:"propertyId"`
		RequestedDateTime string `json:"requestedDateTime"`
		Notes             string `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	when, err := time.Parse(time.RFC3339, req.RequestedDateTime)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "requestedDateTime must be RFC 3339")
		return
	}
	a, err := h.appts.Request(r.Context(), id.UserID, req.PropertyID, when, req.Notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) AgentAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireRole(w, r, model.RoleAgent)
	if !ok {
		return
	}
	status := model.AppointmentStatus(r.URL.Query().Get("status"))
	appts, err := h.appts.ListForAgent(r.Context(), id.UserID, status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appointments": appts,
		"count":        len(appts),
	})
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireRole(w, r, model.RoleAgent)
	if !ok {
		return
	}
	var req struct {
		Status model.AppointmentStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeMessage(w, http.StatusBadRequest, "status required")
		return
	}
	a, err := h.appts.Transition(r.Context(), mux.Vars(r)["id"], id.UserID, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
