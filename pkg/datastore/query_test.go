// ABOUTME: Tests for query and aggregation wire translation
// ABOUTME: Verifies filter wrapping, ordering, cursors and operator mapping

package datastore

import (
	"bytes"
	"testing"

	"github.com/nainya/cloudstore/pkg/wire"
)

func TestToWireQuery(t *testing.T) {
	q := NewQuery("task").
		Where("done", FilterEqual, NewBooleanValue(false)).
		Where("priority", FilterGreaterThanOrEqual, NewIntegerValue(4)).
		OrderBy("priority", true).
		OrderBy("created", false).
		Project("priority").
		Distinct("owner").
		WithOffset(5).
		WithLimit(20)

	wq := toWireQuery("proj", q, []byte("cur"))

	if len(wq.Kind) != 1 || wq.Kind[0].Name != "task" {
		t.Errorf("kind = %#v", wq.Kind)
	}
	if wq.Offset != 5 || wq.Limit != 20 {
		t.Errorf("offset/limit = %d/%d", wq.Offset, wq.Limit)
	}
	if !bytes.Equal(wq.StartCursor, []byte("cur")) {
		t.Errorf("start cursor = %q", wq.StartCursor)
	}
	if len(wq.Order) != 2 {
		t.Fatalf("order length = %d", len(wq.Order))
	}
	if wq.Order[0].Direction != wire.DirectionDescending || wq.Order[0].Property.Name != "priority" {
		t.Errorf("order[0] = %#v", wq.Order[0])
	}
	if wq.Order[1].Direction != wire.DirectionAscending {
		t.Errorf("order[1] direction = %d", wq.Order[1].Direction)
	}
	if len(wq.Projection) != 1 || wq.Projection[0].Property.Name != "priority" {
		t.Errorf("projection = %#v", wq.Projection)
	}
	if len(wq.DistinctOn) != 1 || wq.DistinctOn[0].Name != "owner" {
		t.Errorf("distinct = %#v", wq.DistinctOn)
	}

	composite := wq.Filter.FilterType.(*wire.FilterComposite).CompositeFilter
	if composite.Op != wire.CompositeOperatorAnd {
		t.Errorf("composite op = %d", composite.Op)
	}
	if len(composite.Filters) != 2 {
		t.Fatalf("filter count = %d", len(composite.Filters))
	}
	pf := composite.Filters[1].FilterType.(*wire.FilterProperty).PropertyFilter
	if pf.Property.Name != "priority" || pf.Op != wire.PropertyOperatorGreaterThanOrEqual {
		t.Errorf("filter[1] = %#v", pf)
	}
}

func TestToWireQueryNoFilters(t *testing.T) {
	wq := toWireQuery("proj", NewQuery("task"), nil)
	if wq.Filter != nil {
		t.Errorf("empty filter list should produce no filter, got %#v", wq.Filter)
	}
}

func TestToWireFilterAnyOf(t *testing.T) {
	q := NewQuery("task").
		Where("state", FilterEqual, NewStringValue("open")).
		Where("state", FilterEqual, NewStringValue("blocked")).
		AnyOf()
	wq := toWireQuery("proj", q, nil)
	composite := wq.Filter.FilterType.(*wire.FilterComposite).CompositeFilter
	if composite.Op != wire.CompositeOperatorOr {
		t.Errorf("composite op = %d", composite.Op)
	}
}

func TestAncestorFilter(t *testing.T) {
	parent := IDKey("org", 1, nil)
	wq := toWireQuery("proj", NewQuery("task").Ancestor(parent), nil)
	composite := wq.Filter.FilterType.(*wire.FilterComposite).CompositeFilter
	pf := composite.Filters[0].FilterType.(*wire.FilterProperty).PropertyFilter
	if pf.Property.Name != "__key__" {
		t.Errorf("property = %q", pf.Property.Name)
	}
	if pf.Op != wire.PropertyOperatorHasAncestor {
		t.Errorf("op = %d", pf.Op)
	}
	if pf.Value.ValueType.(*wire.ValueKey).KeyValue.Path[0].Kind != "org" {
		t.Errorf("ancestor key = %#v", pf.Value)
	}
}

func TestPropertyOperatorNumbers(t *testing.T) {
	// The protocol numbering is not contiguous; pin the full mapping.
	tests := []struct {
		op   FilterOperator
		want wire.PropertyOperator
	}{
		{FilterEqual, 5},
		{FilterNotEqual, 9},
		{FilterLessThan, 1},
		{FilterLessThanOrEqual, 2},
		{FilterGreaterThan, 3},
		{FilterGreaterThanOrEqual, 4},
		{FilterIn, 6},
		{FilterNotIn, 13},
		{filterHasAncestor, 11},
	}
	for _, tt := range tests {
		if got := propertyOperator(tt.op); got != tt.want {
			t.Errorf("operator %d = %d, want %d", tt.op, got, tt.want)
		}
	}
}

func TestToWireAggregationQuery(t *testing.T) {
	q := NewQuery("task").Where("done", FilterEqual, NewBooleanValue(true))
	aggs := []Aggregation{
		CountAggregation("total"),
		SumAggregation("sum_priority", "priority"),
		AvgAggregation("avg_priority", "priority"),
	}
	wa := toWireAggregationQuery("proj", aggs, q, nil)

	if wa.NestedQuery == nil || wa.NestedQuery.Kind[0].Name != "task" {
		t.Fatalf("nested query = %#v", wa.NestedQuery)
	}
	if len(wa.Aggregations) != 3 {
		t.Fatalf("aggregation count = %d", len(wa.Aggregations))
	}
	count := wa.Aggregations[0]
	if count.Alias != "total" {
		t.Errorf("alias = %q", count.Alias)
	}
	if op, ok := count.Operator.(*wire.AggregationCount); !ok || op.UpTo != 1000 {
		t.Errorf("count operator = %#v", count.Operator)
	}
	if op, ok := wa.Aggregations[1].Operator.(*wire.AggregationSum); !ok || op.Property.Name != "priority" {
		t.Errorf("sum operator = %#v", wa.Aggregations[1].Operator)
	}
	if op, ok := wa.Aggregations[2].Operator.(*wire.AggregationAvg); !ok || op.Property.Name != "priority" {
		t.Errorf("avg operator = %#v", wa.Aggregations[2].Operator)
	}
}

func TestAggregationResultsFromWire(t *testing.T) {
	results := []*wire.AggregationResult{
		{AggregateProperties: map[string]*wire.Value{
			"total": {ValueType: &wire.ValueInteger{IntegerValue: 12}},
		}},
	}
	out := aggregationResultsFromWire(results)
	if len(out) != 1 {
		t.Fatalf("result count = %d", len(out))
	}
	if got := out[0].Props["total"]; got.Kind != KindInteger || got.Int != 12 {
		t.Errorf("total = %#v", got)
	}
}
