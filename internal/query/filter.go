// Package query translates listing-search parameters into store-level filter
// clauses. Absent fields impose no constraint; price bounds are inclusive;
// string fields match by exact, case-sensitive equality.
package query

import (
	"fmt"
	"net/url"
	"strconv"

	"property-marketplace-api/internal/model"
	"property-marketplace-api/internal/store"
)

type Filter struct {
	City         string
	PropertyType string
	Status       model.ListingStatus
	PriceMin     *float64
	PriceMax     *float64

	// UnassignedOnly is the agent triage view: listings nobody has claimed.
	UnassignedOnly bool

	// SortByCreated orders results by creation date, ties broken by
	// identifier ascending. Without it no ordering is guaranteed.
	SortByCreated bool
	Limit         int
	Offset        int
}

// Clauses builds the conjunctive predicate the store drivers evaluate.
func (f Filter) Clauses() []store.Clause {
	var out []store.Clause
	if f.City != "" {
		out = append(out, store.Clause{Attribute: "City", Op: store.OpEqual, Value: f.City})
	}
	if f.PropertyType != "" {
		out = append(out, store.Clause{Attribute: "PropertyType", Op: store.OpEqual, Value: f.PropertyType})
	}
	if f.UnassignedOnly {
		out = append(out, store.Clause{Attribute: "Status", Op: store.OpEqual, Value: model.ListingUnassigned})
	} else if f.Status != "" {
		out = append(out, store.Clause{Attribute: "Status", Op: store.OpEqual, Value: f.Status})
	}
	if f.PriceMin != nil {
		out = append(out, store.Clause{Attribute: "Price", Op: store.OpGreaterOrEqual, Value: *f.PriceMin})
	}
	if f.PriceMax != nil {
		out = append(out, store.Clause{Attribute: "Price", Op: store.OpLessOrEqual, Value: *f.PriceMax})
	}
	return out
}

// ParseFilter reads a Filter from HTTP query parameters.
func ParseFilter(values url.Values) (Filter, error) {
	f := Filter{
		City:           values.Get("city"),
		PropertyType:   values.Get("propertyType"),
		Status:         model.ListingStatus(values.Get("status")),
		UnassignedOnly: values.Get("unassigned") == "true",
		SortByCreated:  values.Get("sort") == "created",
	}
	if raw := values.Get("minPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("minPrice: %w", err)
		}
		f.PriceMin = &v
	}
	if raw := values.Get("maxPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("maxPrice: %w", err)
		}
		f.PriceMax = &v
	}
	if raw := values.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return Filter{}, fmt.Errorf("limit: invalid value %q", raw)
		}
		f.Limit = v
	}
	if raw := values.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return Filter{}, fmt.Errorf("offset: invalid value %q", raw)
		}
		f.Offset = v
	}
	return f, nil
}
