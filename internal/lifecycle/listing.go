// Package lifecycle owns the listing-assignment and appointment-scheduling
// state machines. Managers are stateless per call: all shared state lives in
// the document store, and every mutation is a single conditioned write.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"property-marketplace-api/internal/media"
	"property-marketplace-api/internal/model"
	"property-marketplace-api/internal/query"
	"property-marketplace-api/internal/store"
)

// Legal listing transitions, Claim excluded (it is the conditional
// agent-assignment write, not a plain status edge). Sold and Inactive are
// terminal.
var listingEdges = map[model.ListingStatus][]model.ListingStatus{
	model.ListingUnassigned:  {model.ListingInactive},
	model.ListingClaimed:     {model.ListingActive, model.ListingInactive},
	model.ListingUnderReview: {model.ListingActive, model.ListingInactive},
	model.ListingActive:      {model.ListingUnderReview, model.ListingSold, model.ListingInactive},
}

type ListingManager struct {
	store store.Store
	table string
	media *media.Resolver
	log   *slog.Logger
}

func NewListingManager(st store.Store, table string, resolver *media.Resolver, log *slog.Logger) *ListingManager {
	if log == nil {
		log = slog.Default()
	}
	return &ListingManager{store: st, table: table, media: resolver, log: log}
}

// ListingInput carries the descriptive attributes; the lifecycle engine
// treats them as opaque beyond presence checks.
type ListingInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	PostalCode    string   `json:"postalCode"`
	Country       string   `json:"country"`
	PropertyType  string   `json:"propertyType"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     float64  `json:"bathrooms"`
	SquareFootage float64  `json:"squareFootage"`
	MediaKeys     []string `json:"imageKeys"`
}

func (m *ListingManager) Create(ctx context.Context, ownerID string, in ListingInput) (*model.Property, error) {
	switch {
	case in.Title == "":
		return nil, validationErr("title required")
	case in.Description == "":
		return nil, validationErr("description required")
	case in.Address == "":
		return nil, validationErr("address required")
	case in.City == "":
		return nil, validationErr("city required")
	case in.Price <= 0:
		return nil, validationErr("price must be positive")
	case len(in.MediaKeys) == 0:
		return nil, validationErr("at least one media key required")
	}

	now := time.Now().UTC()
	p := &model.Property{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		Status:        model.ListingUnassigned,
		Title:         in.Title,
		Description:   in.Description,
		Price:         in.Price,
		Address:       in.Address,
		City:          in.City,
		State:         in.State,
		PostalCode:    in.PostalCode,
		Country:       in.Country,
		PropertyType:  in.PropertyType,
		Bedrooms:      in.Bedrooms,
		Bathrooms:     in.Bathrooms,
		SquareFootage: in.SquareFootage,
		MediaKeys:     in.MediaKeys,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.PropertyType == "" {
		p.PropertyType = "Residential"
	}

	err := m.store.Put(ctx, m.table, p, store.AttributeNotExists("PropertyID"))
	if errors.Is(err, store.ErrPreconditionFailed) {
		// random identifier collided with an existing row; the caller may
		// simply retry
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Claim assigns agentID to an unassigned listing as one conditional write:
// the agent attribute is set only if it is currently absent and the listing
// still sits in Unassigned, so among any set of racing claims at most one
// succeeds and a withdrawn listing stays withdrawn. The losers get
// ErrAlreadyClaimed and are expected to re-fetch; there is no retry here.
func (m *ListingManager) Claim(ctx context.Context, propertyID, agentID string) (*model.Property, error) {
	if propertyID == "" || agentID == "" {
		return nil, validationErr("property and agent identifiers required")
	}
	var claimed model.Property
	err := m.store.Update(ctx, m.table,
		store.Key{"PropertyID": propertyID},
		map[string]any{
			"ListingAgentID": agentID,
			"Status":         model.ListingClaimed,
			"LastUpdated":    time.Now().UTC(),
		},
		store.AttributeExists("PropertyID").
			AndNotExists("ListingAgentID").
			AndEquals("Status", model.ListingUnassigned),
		&claimed,
	)
	if errors.Is(err, store.ErrPreconditionFailed) {
		// distinguish which part of the precondition failed
		var cur model.Property
		gerr := m.store.Get(ctx, m.table, store.Key{"PropertyID": propertyID}, &cur)
		if errors.Is(gerr, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		if gerr != nil {
			return nil, gerr
		}
		if cur.Unassigned() && cur.Status != model.ListingUnassigned {
			// the owner withdrew it before any agent claimed it
			return nil, ErrInvalidTransition
		}
		return nil, ErrAlreadyClaimed
	}
	if err != nil {
		return nil, err
	}
	return &claimed, nil
}

func (m *ListingManager) Review(ctx context.Context, propertyID, agentID string) (*model.Property, error) {
	return m.transition(ctx, propertyID, agentID, model.ListingUnderReview)
}

func (m *ListingManager) Activate(ctx context.Context, propertyID, agentID string) (*model.Property, error) {
	return m.transition(ctx, propertyID, agentID, model.ListingActive)
}

func (m *ListingManager) Deactivate(ctx context.Context, propertyID, callerID string) (*model.Property, error) {
	return m.transition(ctx, propertyID, callerID, model.ListingInactive)
}

func (m *ListingManager) MarkSold(ctx context.Context, propertyID, agentID string) (*model.Property, error) {
	return m.transition(ctx, propertyID, agentID, model.ListingSold)
}

// transition reads the listing to authorize the caller and pick the expected
// state, then writes conditioned on that exact state. A raced write fails the
// precondition rather than clobbering, and is reported as an invalid
// transition so the caller re-reads.
func (m *ListingManager) transition(ctx context.Context, propertyID, callerID string, to model.ListingStatus) (*model.Property, error) {
	var cur model.Property
	if err := m.store.Get(ctx, m.table, store.Key{"PropertyID": propertyID}, &cur); err != nil {
		return nil, translateRead(err)
	}

	if cur.Unassigned() {
		// only the owner may withdraw a listing nobody has claimed
		if to != model.ListingInactive || callerID != cur.OwnerID {
			return nil, ErrForbidden
		}
	} else if callerID != cur.AgentID {
		return nil, ErrForbidden
	}

	if !legalListingEdge(cur.Status, to) {
		return nil, ErrInvalidTransition
	}

	cond := store.AttributeExists("PropertyID").AndEquals("Status", cur.Status)
	if cur.Unassigned() {
		cond = cond.AndNotExists("ListingAgentID")
	} else {
		cond = cond.AndEquals("ListingAgentID", cur.AgentID)
	}

	var updated model.Property
	err := m.store.Update(ctx, m.table,
		store.Key{"PropertyID": propertyID},
		map[string]any{"Status": to, "LastUpdated": time.Now().UTC()},
		cond,
		&updated,
	)
	if errors.Is(err, store.ErrPreconditionFailed) {
		// state moved under us; the edge we validated no longer applies
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func legalListingEdge(from, to model.ListingStatus) bool {
	for _, next := range listingEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Get returns one listing with every media key resolved to a URL.
func (m *ListingManager) Get(ctx context.Context, propertyID string) (*model.Property, error) {
	var p model.Property
	if err := m.store.Get(ctx, m.table, store.Key{"PropertyID": propertyID}, &p); err != nil {
		return nil, translateRead(err)
	}
	p.MediaURLs = m.media.ResolveAll(ctx, p.MediaKeys)
	return &p, nil
}

// List returns listings matching the filter. Only the first media key is
// resolved per item (the thumbnail); detail views resolve the full set.
func (m *ListingManager) List(ctx context.Context, f query.Filter) ([]model.Property, error) {
	var props []model.Property
	if err := m.store.Scan(ctx, m.table, f.Clauses(), &props); err != nil {
		return nil, err
	}
	if f.SortByCreated {
		sort.Slice(props, func(i, j int) bool {
			if !props[i].CreatedAt.Equal(props[j].CreatedAt) {
				return props[i].CreatedAt.Before(props[j].CreatedAt)
			}
			return props[i].ID < props[j].ID
		})
	}
	if f.Offset > 0 {
		if f.Offset >= len(props) {
			props = nil
		} else {
			props = props[f.Offset:]
		}
	}
	if f.Limit > 0 && len(props) > f.Limit {
		props = props[:f.Limit]
	}
	for i := range props {
		if len(props[i].MediaKeys) > 0 {
			props[i].MediaURLs = m.media.ResolveAll(ctx, props[i].MediaKeys[:1])
		}
	}
	return props, nil
}
