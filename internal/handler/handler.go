package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"property-marketplace-api/internal/config"
	"property-marketplace-api/internal/lifecycle"
	"property-marketplace-api/internal/middleware"
	"property-marketplace-api/internal/model"
	"property-marketplace-api/internal/store"
)

type Handler struct {
	listings *lifecycle.ListingManager
	appts    *lifecycle.AppointmentManager
	store    store.Store
	tables   config.Tables
	authCfg  config.AuthConfig
	log      *slog.Logger
}

func New(listings *lifecycle.ListingManager, appts *lifecycle.AppointmentManager, st store.Store, tables config.Tables, authCfg config.AuthConfig, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{listings: listings, appts: appts, store: st, tables: tables, authCfg: authCfg, log: log}
}

func (h *Handler) Routes(rl *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(h.log))
	r.Use(middleware.CORS)
	r.Use(middleware.Recovery(h.log))

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	authR := r.PathPrefix("/api/auth").Subrouter()
	authR.Use(middleware.RateLimit(rl))
	authR.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	authR.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	authR.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)

	public := r.PathPrefix("/api").Subrouter()
	public.HandleFunc("/properties", h.ListProperties).Methods(http.MethodGet)
	public.HandleFunc("/properties/{id}", h.GetProperty).Methods(http.MethodGet)

	priv := r.PathPrefix("/api").Subrouter()
	priv.Use(middleware.Auth(h.authCfg.JWTSecret))
	priv.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	priv.HandleFunc("/users/me", h.Me).Methods(http.MethodGet)
	priv.HandleFunc("/properties", h.CreateProperty).Methods(http.MethodPost)
	priv.HandleFunc("/properties/{id}/claim", h.ClaimProperty).Methods(http.MethodPost)
	priv.HandleFunc("/properties/{id}/status", h.TransitionProperty).Methods(http.MethodPost)
	priv.HandleFunc("/appointments", h.RequestAppointment).Methods(http.MethodPost)
	priv.HandleFunc("/appointments/agent", h.AgentAppointments).Methods(http.MethodGet)
	priv.HandleFunc("/appointments/{id}", h.UpdateAppointment).Methods(http.MethodPut)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// writeError maps the lifecycle taxonomy onto HTTP statuses. Business errors
// carry their message out; infrastructure faults do not.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, lifecycle.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, lifecycle.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, lifecycle.ErrAlreadyClaimed):
		writeMessage(w, http.StatusConflict, "listing already claimed by another agent")
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		writeMessage(w, http.StatusConflict, "status transition not allowed from current state")
	case errors.Is(err, lifecycle.ErrConflict):
		writeMessage(w, http.StatusConflict, "identifier conflict, please retry")
	case errors.Is(err, store.ErrUnavailable):
		h.log.Error("store unavailable", slog.Any("err", err))
		writeMessage(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		h.log.Error("internal error", slog.Any("err", err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// identity pulls the verified caller; requireRole additionally gates on role.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return middleware.Identity{}, false
	}
	return id, true
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, role model.Role) (middleware.Identity, bool) {
	id, ok := h.identity(w, r)
	if !ok {
		return id, false
	}
	if id.Role != role {
		writeMessage(w, http.StatusForbidden, string(role)+" role required")
		return id, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
