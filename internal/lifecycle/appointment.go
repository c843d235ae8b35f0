package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"property-marketplace-api/internal/model"
	"property-marketplace-api/internal/store"
)

// Legal appointment transitions. Completed and Cancelled are terminal, and no
// edge returns to Requested.
var appointmentEdges = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentRequested: {model.AppointmentConfirmed, model.AppointmentCancelled},
	model.AppointmentConfirmed: {model.AppointmentCompleted, model.AppointmentCancelled},
}

type AppointmentManager struct {
	store     store.Store
	apptTable string
	propTable string
	log       *slog.Logger
}

func NewAppointmentManager(st store.Store, apptTable, propTable string, log *slog.Logger) *AppointmentManager {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentManager{store: st, apptTable: apptTable, propTable: propTable, log: log}
}

// Request creates a viewing appointment in status Requested with no agent.
// The requested instant may come from a conversational-date heuristic
// upstream; it gets the same validation as any client-supplied value. The
// referenced property is never mutated.
func (m *AppointmentManager) Request(ctx context.Context, clientID, propertyID string, when time.Time, notes string) (*model.Appointment, error) {
	if propertyID == "" {
		return nil, validationErr("property identifier required")
	}
	if when.IsZero() {
		return nil, validationErr("requested date-time required")
	}
	if when.Before(time.Now()) {
		return nil, validationErr("requested date-time is in the past")
	}

	var prop model.Property
	if err := m.store.Get(ctx, m.propTable, store.Key{"PropertyID": propertyID}, &prop); err != nil {
		return nil, translateRead(err)
	}

	now := time.Now().UTC()
	a := &model.Appointment{
		ID:         uuid.New().String(),
		PropertyID: propertyID,
		ClientID:   clientID,
		When:       when.UTC(),
		Status:     model.AppointmentRequested,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := m.store.Put(ctx, m.apptTable, a, store.AttributeNotExists("AppointmentID"))
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListForAgent returns appointments whose referenced property is listed by
// agentID. The store has no native join, so appointments are fetched first
// and each is paired with a property read; the two reads are not a snapshot,
// which is accepted for dashboard views.
func (m *AppointmentManager) ListForAgent(ctx context.Context, agentID string, statusFilter model.AppointmentStatus) ([]model.Appointment, error) {
	if statusFilter != "" && !validAppointmentStatus(statusFilter) {
		return nil, validationErr("unknown status %q", statusFilter)
	}
	var clauses []store.Clause
	if statusFilter != "" {
		clauses = append(clauses, store.Clause{Attribute: "Status", Op: store.OpEqual, Value: statusFilter})
	}
	var appts []model.Appointment
	if err := m.store.Scan(ctx, m.apptTable, clauses, &appts); err != nil {
		return nil, err
	}

	props := make(map[string]*model.Property)
	var out []model.Appointment
	for _, a := range appts {
		prop, ok := props[a.PropertyID]
		if !ok {
			var p model.Property
			err := m.store.Get(ctx, m.propTable, store.Key{"PropertyID": a.PropertyID}, &p)
			switch {
			case errors.Is(err, store.ErrNotFound):
				m.log.Warn("appointment references missing property",
					slog.String("appointment", a.ID), slog.String("property", a.PropertyID))
				props[a.PropertyID] = nil
				continue
			case err != nil:
				return nil, err
			}
			prop = &p
			props[a.PropertyID] = prop
		}
		if prop != nil && prop.AgentID == agentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].When.Equal(out[j].When) {
			return out[i].When.Before(out[j].When)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Transition moves an appointment along one legal edge. Only the listing
// agent of the referenced property may act, regardless of what the target
// status is. The write is conditioned on the status observed here, so a
// racing transition loses with ErrInvalidTransition instead of overwriting.
func (m *AppointmentManager) Transition(ctx context.Context, appointmentID, agentID string, to model.AppointmentStatus) (*model.Appointment, error) {
	var cur model.Appointment
	if err := m.store.Get(ctx, m.apptTable, store.Key{"AppointmentID": appointmentID}, &cur); err != nil {
		return nil, translateRead(err)
	}
	var prop model.Property
	if err := m.store.Get(ctx, m.propTable, store.Key{"PropertyID": cur.PropertyID}, &prop); err != nil {
		return nil, translateRead(err)
	}
	if prop.AgentID == "" || prop.AgentID != agentID {
		return nil, ErrForbidden
	}
	if !validAppointmentStatus(to) {
		return nil, validationErr("unknown status %q", to)
	}
	if !legalAppointmentEdge(cur.Status, to) {
		return nil, ErrInvalidTransition
	}

	var updated model.Appointment
	err := m.store.Update(ctx, m.apptTable,
		store.Key{"AppointmentID": appointmentID},
		map[string]any{
			"Status":      to,
			"AgentID":     agentID,
			"LastUpdated": time.Now().UTC(),
		},
		store.AttributeExists("AppointmentID").AndEquals("Status", cur.Status),
		&updated,
	)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func legalAppointmentEdge(from, to model.AppointmentStatus) bool {
	for _, next := range appointmentEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validAppointmentStatus(s model.AppointmentStatus) bool {
	switch s {
	case model.AppointmentRequested, model.AppointmentConfirmed,
		model.AppointmentCancelled, model.AppointmentCompleted:
		return true
	}
	return false
}
