package store

import (
	"context"
	"errors"
	"testing"
)

type widget struct {
	ID    string  `dynamodbav:"WidgetID"`
	Owner string  `dynamodbav:"Owner,omitempty"`
	Size  float64 `dynamodbav:"Size"`
	City  string  `dynamodbav:"City"`
}

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	m.CreateTable("widgets", "WidgetID")
	return m
}

func TestMemoryGetPut(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	if err := m.Put(ctx, "widgets", widget{ID: "w1", Size: 10, City: "Manila"}, None); err != nil {
		t.Fatalf("put: %v", err)
	}

	var got widget
	if err := m.Get(ctx, "widgets", Key{"WidgetID": "w1"}, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Size != 10 || got.City != "Manila" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if err := m.Get(ctx, "widgets", Key{"WidgetID": "nope"}, &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryConditionalPut(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	cond := AttributeNotExists("WidgetID")
	if err := m.Put(ctx, "widgets", widget{ID: "w1"}, cond); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := m.Put(ctx, "widgets", widget{ID: "w1"}, cond); !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestMemoryConditionalUpdate(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	if err := m.Put(ctx, "widgets", widget{ID: "w1", Size: 5}, None); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Owner uses omitempty, so it is absent until set; exactly one of two
	// conditional sets may win.
	cond := AttributeExists("WidgetID").AndNotExists("Owner")
	var got widget
	if err := m.Update(ctx, "widgets", Key{"WidgetID": "w1"}, map[string]any{"Owner": "alice"}, cond, &got); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if got.Owner != "alice" {
		t.Errorf("expected owner alice, got %q", got.Owner)
	}
	err := m.Update(ctx, "widgets", Key{"WidgetID": "w1"}, map[string]any{"Owner": "bob"}, cond, nil)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}

	// equals condition against the now-set attribute
	err = m.Update(ctx, "widgets", Key{"WidgetID": "w1"}, map[string]any{"Size": 6.0},
		AttributeEquals("Owner", "alice"), nil)
	if err != nil {
		t.Fatalf("equals update: %v", err)
	}
	err = m.Update(ctx, "widgets", Key{"WidgetID": "w1"}, map[string]any{"Size": 7.0},
		AttributeEquals("Owner", "bob"), nil)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestMemoryUpdateMissingItemWithExistsCondition(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	err := m.Update(ctx, "widgets", Key{"WidgetID": "ghost"},
		map[string]any{"Size": 1.0},
		AttributeExists("WidgetID"), nil)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed for missing item, got %v", err)
	}
}

func TestMemoryScanFilters(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	seed := []widget{
		{ID: "w1", City: "Manila", Size: 10},
		{ID: "w2", City: "Manila", Size: 25},
		{ID: "w3", City: "Cebu", Size: 40},
	}
	for _, it := range seed {
		if err := m.Put(ctx, "widgets", it, None); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tests := []struct {
		name    string
		clauses []Clause
		want    int
	}{
		{"no filter", nil, 3},
		{"city equal", []Clause{{Attribute: "City", Op: OpEqual, Value: "Manila"}}, 2},
		{"city exact case", []Clause{{Attribute: "City", Op: OpEqual, Value: "manila"}}, 0},
		{"size range", []Clause{
			{Attribute: "Size", Op: OpGreaterOrEqual, Value: 20.0},
			{Attribute: "Size", Op: OpLessOrEqual, Value: 40.0},
		}, 2},
		{"conjunction", []Clause{
			{Attribute: "City", Op: OpEqual, Value: "Manila"},
			{Attribute: "Size", Op: OpGreaterOrEqual, Value: 20.0},
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []widget
			if err := m.Scan(ctx, "widgets", tt.clauses, &got); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, len(got))
			}
		})
	}
}

func TestMemoryCompositeKey(t *testing.T) {
	m := NewMemory()
	m.CreateTable("applications", "PropertyID", "AgentID")
	ctx := context.Background()

	type application struct {
		PropertyID string `dynamodbav:"PropertyID"`
		AgentID    string `dynamodbav:"AgentID"`
		Note       string `dynamodbav:"Note"`
	}

	items := []application{
		{PropertyID: "p1", AgentID: "a1", Note: "first"},
		{PropertyID: "p1", AgentID: "a2", Note: "second"},
	}
	for _, it := range items {
		if err := m.Put(ctx, "applications", it, None); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	var got application
	if err := m.Get(ctx, "applications", Key{"PropertyID": "p1", "AgentID": "a2"}, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Note != "second" {
		t.Errorf("composite key fetched wrong item: %+v", got)
	}
}

func TestMemoryUnregisteredTable(t *testing.T) {
	m := NewMemory()
	err := m.Get(context.Background(), "nope", Key{"ID": "x"}, &widget{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
