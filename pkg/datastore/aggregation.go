package datastore

import "github.com/nainya/cloudstore/pkg/wire"

// countUpTo caps server-side counting cost for count aggregations.
const countUpTo = 1000

type aggregationOp uint8

const (
	aggregationCount aggregationOp = iota
	aggregationSum
	aggregationAvg
)

// Aggregation is one named aggregation over a base query. Construct with
// CountAggregation, SumAggregation or AvgAggregation.
type Aggregation struct {
	op       aggregationOp
	alias    string
	property string
}

// CountAggregation counts matching entities under the given alias. The
// count is capped at 1000.
func CountAggregation(alias string) Aggregation {
	return Aggregation{op: aggregationCount, alias: alias}
}

// SumAggregation sums a numeric property under the given alias.
func SumAggregation(alias, property string) Aggregation {
	return Aggregation{op: aggregationSum, alias: alias, property: property}
}

// AvgAggregation averages a numeric property under the given alias.
func AvgAggregation(alias, property string) Aggregation {
	return Aggregation{op: aggregationAvg, alias: alias, property: property}
}

// toWireAggregationQuery wraps the base query as a nested query with the
// requested aggregation operators.
func toWireAggregationQuery(projectID string, aggs []Aggregation, q *Query, cursor []byte) *wire.AggregationQuery {
	out := &wire.AggregationQuery{NestedQuery: toWireQuery(projectID, q, cursor)}
	for _, a := range aggs {
		wa := &wire.Aggregation{Alias: a.alias}
		switch a.op {
		case aggregationCount:
			wa.Operator = &wire.AggregationCount{UpTo: countUpTo}
		case aggregationSum:
			wa.Operator = &wire.AggregationSum{
				Property: &wire.PropertyReference{Name: a.property},
			}
		case aggregationAvg:
			wa.Operator = &wire.AggregationAvg{
				Property: &wire.PropertyReference{Name: a.property},
			}
		}
		out.Aggregations = append(out.Aggregations, wa)
	}
	return out
}

// aggregationResultsFromWire unwraps each aliased scalar into an
// entity-variant value keyed by alias.
func aggregationResultsFromWire(results []*wire.AggregationResult) []Value {
	out := make([]Value, 0, len(results))
	for _, r := range results {
		props := make(map[string]Value, len(r.AggregateProperties))
		for alias, wv := range r.AggregateProperties {
			props[alias] = valueFromWire(wv)
		}
		out = append(out, NewEntityValue(props))
	}
	return out
}
