package store

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Memory implements Store in process, for tests and local development. Items
// are kept in marshalled attribute-value form so conditions and filters are
// evaluated against exactly the representation the DynamoDB driver writes.
type Memory struct {
	mu     sync.Mutex
	tables map[string]*memTable
}

type memTable struct {
	keyAttrs []string
	items    map[string]map[string]types.AttributeValue
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable)}
}

// CreateTable registers a table and its key attributes, partition first. The
// DynamoDB driver needs no equivalent because the service knows its schemas.
func (m *Memory) CreateTable(name string, keyAttrs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &memTable{
		keyAttrs: keyAttrs,
		items:    make(map[string]map[string]types.AttributeValue),
	}
}

func (m *Memory) table(name string) (*memTable, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: table %s not registered", ErrUnavailable, name)
	}
	return t, nil
}

func (m *Memory) Get(ctx context.Context, table string, key Key, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	id, err := t.keyFromMap(key)
	if err != nil {
		return err
	}
	item, ok := t.items[id]
	if !ok {
		return ErrNotFound
	}
	return attributevalue.UnmarshalMap(item, out)
}

func (m *Memory) Put(ctx context.Context, table string, item any, cond Condition) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	id, err := t.keyFromItem(av)
	if err != nil {
		return err
	}
	if !evalCondition(cond, t.items[id]) {
		return ErrPreconditionFailed
	}
	t.items[id] = av
	return nil
}

func (m *Memory) Update(ctx context.Context, table string, key Key, set map[string]any, cond Condition, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	id, err := t.keyFromMap(key)
	if err != nil {
		return err
	}
	current := t.items[id]
	if !evalCondition(cond, current) {
		return ErrPreconditionFailed
	}

	// UpdateItem upserts when no condition prevents it, same as DynamoDB.
	next := make(map[string]types.AttributeValue, len(current)+len(set))
	for k, v := range current {
		next[k] = v
	}
	if current == nil {
		kav, err := attributevalue.MarshalMap(map[string]any(key))
		if err != nil {
			return fmt.Errorf("marshal key: %w", err)
		}
		for k, v := range kav {
			next[k] = v
		}
	}
	for name, value := range set {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		next[name] = av
	}
	t.items[id] = next
	if out != nil {
		return attributevalue.UnmarshalMap(next, out)
	}
	return nil
}

func (m *Memory) Scan(ctx context.Context, table string, clauses []Clause, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	var matched []map[string]types.AttributeValue
	for _, item := range t.items {
		ok, err := matchClauses(clauses, item)
		if err != nil {
			return err
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return attributevalue.UnmarshalListOfMaps(matched, out)
}

func (t *memTable) keyFromMap(key Key) (string, error) {
	kav, err := attributevalue.MarshalMap(map[string]any(key))
	if err != nil {
		return "", fmt.Errorf("marshal key: %w", err)
	}
	return t.keyFromItem(kav)
}

func (t *memTable) keyFromItem(item map[string]types.AttributeValue) (string, error) {
	parts := make([]string, 0, len(t.keyAttrs))
	for _, attr := range t.keyAttrs {
		av, ok := item[attr]
		if !ok {
			return "", fmt.Errorf("%w: missing key attribute %s", ErrUnavailable, attr)
		}
		enc, err := encodeKeyValue(av)
		if err != nil {
			return "", err
		}
		parts = append(parts, enc)
	}
	return strings.Join(parts, "\x1f"), nil
}

func encodeKeyValue(av types.AttributeValue) (string, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value, nil
	case *types.AttributeValueMemberN:
		return "N:" + v.Value, nil
	default:
		return "", fmt.Errorf("%w: unsupported key attribute type %T", ErrUnavailable, av)
	}
}

// evalCondition mirrors DynamoDB semantics: against a missing item the checks
// run over an empty attribute set, and a NULL attribute counts as present for
// attribute_exists but never equal to a scalar.
func evalCondition(cond Condition, item map[string]types.AttributeValue) bool {
	for _, ch := range cond.checks {
		av, present := item[ch.attribute]
		switch ch.kind {
		case checkExists:
			if !present {
				return false
			}
		case checkNotExists:
			if present {
				return false
			}
		case checkEquals:
			if !present {
				return false
			}
			want, err := attributevalue.Marshal(ch.value)
			if err != nil || !avEqual(av, want) {
				return false
			}
		}
	}
	return true
}

func matchClauses(clauses []Clause, item map[string]types.AttributeValue) (bool, error) {
	for _, cl := range clauses {
		av, present := item[cl.Attribute]
		if !present {
			return false, nil
		}
		want, err := attributevalue.Marshal(cl.Value)
		if err != nil {
			return false, fmt.Errorf("marshal clause value: %w", err)
		}
		switch cl.Op {
		case OpEqual:
			if !avEqual(av, want) {
				return false, nil
			}
		case OpGreaterOrEqual:
			c, ok := avCompare(av, want)
			if !ok || c < 0 {
				return false, nil
			}
		case OpLessOrEqual:
			c, ok := avCompare(av, want)
			if !ok || c > 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unknown operator %q", cl.Op)
		}
	}
	return true, nil
}

func avEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberNULL:
		_, ok := b.(*types.AttributeValueMemberNULL)
		return ok
	default:
		return reflect.DeepEqual(a, b)
	}
}

// avCompare orders two scalar attribute values: numerically for N, lexically
// for S. Mixed or non-scalar types do not compare.
func avCompare(a, b types.AttributeValue) (int, bool) {
	switch av := a.(type) {
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return 0, false
		}
		af, err1 := strconv.ParseFloat(av.Value, 64)
		bf, err2 := strconv.ParseFloat(bv.Value, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.Value, bv.Value), true
	default:
		return 0, false
	}
}
