// ABOUTME: Query model and its translation to the wire query message
// ABOUTME: Flat filters under one composite operator, ordering, projections, cursors

package datastore

import "github.com/nainya/cloudstore/pkg/wire"

// FilterOperator compares one property against one value.
type FilterOperator uint8

const (
	FilterEqual FilterOperator = iota
	FilterNotEqual
	FilterLessThan
	FilterLessThanOrEqual
	FilterGreaterThan
	FilterGreaterThanOrEqual
	FilterIn
	FilterNotIn
	filterHasAncestor
)

// CompositeOperator combines a query's filters. The filter model is flat:
// one composite operator over property filters, no nesting.
type CompositeOperator uint8

const (
	CompositeAnd CompositeOperator = iota
	CompositeOr
)

// Filter is one property comparison.
type Filter struct {
	Property string
	Op       FilterOperator
	Value    Value
}

// Order sorts results by one property.
type Order struct {
	Property   string
	Descending bool
}

// Query describes one Datastore query. A query is a value object: running
// it never mutates it, so the same query can be reused across page fetches.
type Query struct {
	Kind        string
	Namespace   string
	Filters     []Filter
	CompositeOp CompositeOperator
	Orders      []Order
	Projections []string
	DistinctOn  []string
	Offset      int32
	Limit       int32

	// Cursor is the opaque continuation token to start from; the client
	// overwrites its working copy with the server's end cursor each page.
	Cursor []byte

	// Eventual selects eventual read consistency instead of strong.
	Eventual bool
}

// NewQuery creates a query over one entity kind.
func NewQuery(kind string) *Query {
	return &Query{Kind: kind}
}

// InNamespace restricts the query to a namespace.
func (q *Query) InNamespace(ns string) *Query {
	q.Namespace = ns
	return q
}

// Where adds a property filter.
func (q *Query) Where(property string, op FilterOperator, value Value) *Query {
	q.Filters = append(q.Filters, Filter{Property: property, Op: op, Value: value})
	return q
}

// Ancestor restricts results to descendants of the given key.
func (q *Query) Ancestor(k *Key) *Query {
	q.Filters = append(q.Filters, Filter{Property: "__key__", Op: filterHasAncestor, Value: NewKeyValue(k)})
	return q
}

// AnyOf combines the query's filters with OR instead of AND.
func (q *Query) AnyOf() *Query {
	q.CompositeOp = CompositeOr
	return q
}

// OrderBy appends an ordering.
func (q *Query) OrderBy(property string, descending bool) *Query {
	q.Orders = append(q.Orders, Order{Property: property, Descending: descending})
	return q
}

// Project restricts the returned properties.
func (q *Query) Project(properties ...string) *Query {
	q.Projections = append(q.Projections, properties...)
	return q
}

// Distinct de-duplicates results on the given properties.
func (q *Query) Distinct(properties ...string) *Query {
	q.DistinctOn = append(q.DistinctOn, properties...)
	return q
}

// WithOffset skips the first n results.
func (q *Query) WithOffset(n int32) *Query {
	q.Offset = n
	return q
}

// WithLimit caps the number of results.
func (q *Query) WithLimit(n int32) *Query {
	q.Limit = n
	return q
}

// Start resumes the query from a cursor returned by an earlier run.
func (q *Query) Start(cursor []byte) *Query {
	q.Cursor = cursor
	return q
}

// EventuallyConsistent allows the query to read eventually consistent data.
func (q *Query) EventuallyConsistent() *Query {
	q.Eventual = true
	return q
}

// toWireQuery builds the wire query for one page fetch. Everything except
// the start cursor is derived from the immutable query; the cursor is the
// only state that threads across pages.
func toWireQuery(projectID string, q *Query, cursor []byte) *wire.Query {
	wq := &wire.Query{
		Kind:        []*wire.KindExpression{{Name: q.Kind}},
		Filter:      toWireFilter(projectID, q.Filters, q.CompositeOp),
		Offset:      q.Offset,
		Limit:       q.Limit,
		StartCursor: cursor,
	}
	for _, name := range q.Projections {
		wq.Projection = append(wq.Projection, &wire.Projection{
			Property: &wire.PropertyReference{Name: name},
		})
	}
	for _, o := range q.Orders {
		dir := wire.DirectionAscending
		if o.Descending {
			dir = wire.DirectionDescending
		}
		wq.Order = append(wq.Order, &wire.PropertyOrder{
			Property:  &wire.PropertyReference{Name: o.Property},
			Direction: dir,
		})
	}
	for _, name := range q.DistinctOn {
		wq.DistinctOn = append(wq.DistinctOn, &wire.PropertyReference{Name: name})
	}
	return wq
}

// toWireFilter wraps the flat property filters in a single composite. An
// empty filter list yields no filter at all.
func toWireFilter(projectID string, filters []Filter, op CompositeOperator) *wire.Filter {
	if len(filters) == 0 {
		return nil
	}
	wireOp := wire.CompositeOperatorAnd
	if op == CompositeOr {
		wireOp = wire.CompositeOperatorOr
	}
	composite := &wire.CompositeFilter{Op: wireOp}
	for _, f := range filters {
		composite.Filters = append(composite.Filters, &wire.Filter{
			FilterType: &wire.FilterProperty{PropertyFilter: &wire.PropertyFilter{
				Property: &wire.PropertyReference{Name: f.Property},
				Op:       propertyOperator(f.Op),
				Value:    toWireValue(projectID, f.Value, nil, false),
			}},
		})
	}
	return &wire.Filter{FilterType: &wire.FilterComposite{CompositeFilter: composite}}
}

func propertyOperator(op FilterOperator) wire.PropertyOperator {
	switch op {
	case FilterEqual:
		return wire.PropertyOperatorEqual
	case FilterNotEqual:
		return wire.PropertyOperatorNotEqual
	case FilterLessThan:
		return wire.PropertyOperatorLessThan
	case FilterLessThanOrEqual:
		return wire.PropertyOperatorLessThanOrEqual
	case FilterGreaterThan:
		return wire.PropertyOperatorGreaterThan
	case FilterGreaterThanOrEqual:
		return wire.PropertyOperatorGreaterThanOrEqual
	case FilterIn:
		return wire.PropertyOperatorIn
	case FilterNotIn:
		return wire.PropertyOperatorNotIn
	case filterHasAncestor:
		return wire.PropertyOperatorHasAncestor
	default:
		panic("datastore: unknown filter operator")
	}
}
