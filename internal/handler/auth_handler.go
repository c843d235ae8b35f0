package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"property-marketplace-api/internal/auth"
	"property-marketplace-api/internal/model"
	"property-marketplace-api/internal/store"
)

type registerRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

type tokenResponse struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	UserID       string     `json:"userId"`
	Name         string     `json:"name,omitempty"`
	Role         model.Role `json:"role"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "email, password, name and role are required")
		return
	}
	if len(req.Password) < 8 {
		writeMessage(w, http.StatusBadRequest, "password too short")
		return
	}
	if !req.Role.Valid() {
		writeMessage(w, http.StatusBadRequest, "role must be Client or Agent")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	now := time.Now().UTC()
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		Name:         req.Name,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Reserve the address first; the conditional put is the uniqueness
	// check, there is no scan.
	claim := model.EmailClaim{Email: u.Email, UserID: u.ID}
	err = h.store.Put(r.Context(), h.tables.Emails, claim, store.AttributeNotExists("Email"))
	if errors.Is(err, store.ErrPreconditionFailed) {
		writeMessage(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.store.Put(r.Context(), h.tables.Users, u, store.AttributeNotExists("UserID")); err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.issueTokens(r, u)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password required")
		return
	}

	var claim model.EmailClaim
	err := h.store.Get(r.Context(), h.tables.Emails, store.Key{"Email": strings.ToLower(req.Email)}, &claim)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	var u model.User
	err = h.store.Get(r.Context(), h.tables.Users, store.Key{"UserID": claim.UserID}, &u)
	if errors.Is(err, store.ErrNotFound) {
		// email claim without a user row: registration died between writes
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	resp, err := h.issueTokens(r, &u)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "refreshToken required")
		return
	}

	hash := auth.HashRefreshToken(req.RefreshToken)
	var rt model.RefreshToken
	err := h.store.Get(r.Context(), h.tables.RefreshTokens, store.Key{"TokenHash": hash}, &rt)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rt.Revoked || time.Now().After(rt.ExpiresAt) {
		writeMessage(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	// Rotation: revoking the old token is conditioned on it not being
	// revoked yet, so two racing refreshes with the same token cannot both
	// win.
	err = h.store.Update(r.Context(), h.tables.RefreshTokens,
		store.Key{"TokenHash": hash},
		map[string]any{"Revoked": true},
		store.AttributeExists("TokenHash").AndEquals("Revoked", false),
		nil,
	)
	if errors.Is(err, store.ErrPreconditionFailed) {
		writeMessage(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	var u model.User
	if err := h.store.Get(r.Context(), h.tables.Users, store.Key{"UserID": rt.UserID}, &u); err != nil {
		h.writeError(w, err)
		return
	}
	resp, err := h.issueTokens(r, &u)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken != "" {
		err := h.store.Update(r.Context(), h.tables.RefreshTokens,
			store.Key{"TokenHash": auth.HashRefreshToken(req.RefreshToken)},
			map[string]any{"Revoked": true},
			store.AttributeExists("TokenHash"),
			nil,
		)
		if err != nil && !errors.Is(err, store.ErrPreconditionFailed) {
			h.writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var u model.User
	err := h.store.Get(r.Context(), h.tables.Users, store.Key{"UserID": id.UserID}, &u)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) issueTokens(r *http.Request, u *model.User) (*tokenResponse, error) {
	tok, err := auth.MakeToken(u.ID, u.Role, h.authCfg.JWTSecret, h.authCfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	rt := model.RefreshToken{
		TokenHash: hash,
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(h.authCfg.RefreshTokenTTL).UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Put(r.Context(), h.tables.RefreshTokens, rt, store.None); err != nil {
		return nil, err
	}
	return &tokenResponse{
		Token:        tok,
		RefreshToken: raw,
		UserID:       u.ID,
		Name:         u.Name,
		Role:         u.Role,
	}, nil
}
