package query

import (
	"net/url"
	"testing"

	"property-marketplace-api/internal/model"
	"property-marketplace-api/internal/store"
)

func TestClauses(t *testing.T) {
	min, max := 100000.0, 500000.0

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"empty filter constrains nothing", Filter{}, 0},
		{"city only", Filter{City: "Manila"}, 1},
		{"full set", Filter{
			City:         "Manila",
			PropertyType: "Residential",
			Status:       model.ListingActive,
			PriceMin:     &min,
			PriceMax:     &max,
		}, 5},
		{"unassigned wins over status", Filter{
			Status:         model.ListingActive,
			UnassignedOnly: true,
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Clauses()
			if len(got) != tt.want {
				t.Fatalf("expected %d clauses, got %d: %+v", tt.want, len(got), got)
			}
		})
	}
}

func TestClausesUnassigned(t *testing.T) {
	cl := Filter{UnassignedOnly: true}.Clauses()
	if len(cl) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(cl))
	}
	if cl[0].Attribute != "Status" || cl[0].Op != store.OpEqual || cl[0].Value != model.ListingUnassigned {
		t.Errorf("unexpected clause: %+v", cl[0])
	}
}

func TestClausesPriceBounds(t *testing.T) {
	min := 250000.0
	cl := Filter{PriceMin: &min}.Clauses()
	if len(cl) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(cl))
	}
	if cl[0].Op != store.OpGreaterOrEqual || cl[0].Value != 250000.0 {
		t.Errorf("unexpected clause: %+v", cl[0])
	}
}

func TestParseFilter(t *testing.T) {
	v := url.Values{}
	v.Set("city", "Cebu")
	v.Set("propertyType", "Condo")
	v.Set("minPrice", "100000")
	v.Set("maxPrice", "900000")
	v.Set("sort", "created")
	v.Set("limit", "20")
	v.Set("offset", "40")

	f, err := ParseFilter(v)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.City != "Cebu" || f.PropertyType != "Condo" {
		t.Errorf("strings: %+v", f)
	}
	if f.PriceMin == nil || *f.PriceMin != 100000 || f.PriceMax == nil || *f.PriceMax != 900000 {
		t.Errorf("prices: %+v", f)
	}
	if !f.SortByCreated || f.Limit != 20 || f.Offset != 40 {
		t.Errorf("paging: %+v", f)
	}
}

func TestParseFilterErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad min price", "minPrice", "cheap"},
		{"bad max price", "maxPrice", "1e"},
		{"bad limit", "limit", "-1"},
		{"bad offset", "offset", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := url.Values{}
			v.Set(tt.key, tt.value)
			if _, err := ParseFilter(v); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
