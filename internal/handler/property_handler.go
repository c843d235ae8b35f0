package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"property-marketplace-api/internal/lifecycle"
	"property-marketplace-api/internal/model"
	"property-marketplace-api/internal/query"
)

func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireRole(w, r, model.RoleClient)
	if !ok {
		return
	}
	var in lifecycle.ListingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.listings.Create(r.Context(), id.UserID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	f, err := query.ParseFilter(r.URL.Query())
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	props, err := h.listings.List(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"properties": props,
		"count":      len(props),
	})
}

func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.listings.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) ClaimProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireRole(w, r, model.RoleAgent)
	if !ok {
		return
	}
	p, err := h.listings.Claim(r.Context(), mux.Vars(r)["id"], id.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// TransitionProperty drives the post-claim edges. Deactivation is open to any
// authenticated caller because an owner may withdraw their own unassigned
// listing; the manager authorizes against the actual row either way.
func (h *Handler) TransitionProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	propertyID := mux.Vars(r)["id"]
	var (
		p   *model.Property
		err error
	)
	switch req.Action {
	case "review":
		p, err = h.listings.Review(r.Context(), propertyID, id.UserID)
	case "activate":
		p, err = h.listings.Activate(r.Context(), propertyID, id.UserID)
	case "deactivate":
		p, err = h.listings.Deactivate(r.Context(), propertyID, id.UserID)
	case "sold":
		p, err = h.listings.MarkSold(r.Context(), propertyID, id.UserID)
	default:
		writeMessage(w, http.StatusBadRequest, "action must be one of review, activate, deactivate, sold")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
