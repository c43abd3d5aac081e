package wire

// Query is the wire form of a Datastore query.
type Query struct {
	Projection  []*Projection
	Kind        []*KindExpression
	Filter      *Filter
	Order       []*PropertyOrder
	DistinctOn  []*PropertyReference
	StartCursor []byte
	EndCursor   []byte
	Offset      int32
	Limit       int32
}

// KindExpression names the entity kind a query runs over.
type KindExpression struct {
	Name string
}

// PropertyReference names a property, possibly dot-separated for nested
// properties.
type PropertyReference struct {
	Name string
}

// Projection marks a property for projection queries.
type Projection struct {
	Property *PropertyReference
}

// Direction is the sort direction of a PropertyOrder.
type Direction int32

const (
	DirectionUnspecified Direction = 0
	DirectionAscending   Direction = 1
	DirectionDescending  Direction = 2
)

// PropertyOrder sorts query results by one property.
type PropertyOrder struct {
	Property  *PropertyReference
	Direction Direction
}

// Filter is the oneof over composite and property filters.
type Filter struct {
	FilterType FilterType
}

// FilterType marks the two filter variants.
type FilterType interface {
	isFilterType()
}

// FilterComposite wraps a CompositeFilter.
type FilterComposite struct {
	CompositeFilter *CompositeFilter
}

// FilterProperty wraps a PropertyFilter.
type FilterProperty struct {
	PropertyFilter *PropertyFilter
}

func (*FilterComposite) isFilterType() {}
func (*FilterProperty) isFilterType()  {}

// CompositeOperator combines the sub-filters of a CompositeFilter.
type CompositeOperator int32

const (
	CompositeOperatorUnspecified CompositeOperator = 0
	CompositeOperatorAnd         CompositeOperator = 1
	CompositeOperatorOr          CompositeOperator = 2
)

// CompositeFilter combines one or more filters with a single operator.
type CompositeFilter struct {
	Op      CompositeOperator
	Filters []*Filter
}

// PropertyOperator compares a property against a value.
type PropertyOperator int32

const (
	PropertyOperatorUnspecified        PropertyOperator = 0
	PropertyOperatorLessThan           PropertyOperator = 1
	PropertyOperatorLessThanOrEqual    PropertyOperator = 2
	PropertyOperatorGreaterThan        PropertyOperator = 3
	PropertyOperatorGreaterThanOrEqual PropertyOperator = 4
	PropertyOperatorEqual              PropertyOperator = 5
	PropertyOperatorIn                 PropertyOperator = 6
	PropertyOperatorNotEqual           PropertyOperator = 9
	PropertyOperatorHasAncestor        PropertyOperator = 11
	PropertyOperatorNotIn              PropertyOperator = 13
)

// PropertyFilter compares one property against one value.
type PropertyFilter struct {
	Property *PropertyReference
	Op       PropertyOperator
	Value    *Value
}

// MoreResultsType reports whether a query batch exhausted the result set.
type MoreResultsType int32

const (
	MoreResultsTypeUnspecified MoreResultsType = 0
	MoreResultsTypeNotFinished MoreResultsType = 1
	MoreResultsTypeAfterLimit  MoreResultsType = 2
	MoreResultsTypeNoMore      MoreResultsType = 3
	MoreResultsTypeAfterCursor MoreResultsType = 4
)

// QueryResultBatch is one page of query results.
type QueryResultBatch struct {
	SkippedResults  int32
	SkippedCursor   []byte
	EntityResults   []*EntityResult
	EndCursor       []byte
	MoreResults     MoreResultsType
	SnapshotVersion int64
}

// AggregationQuery wraps a base query with a list of named aggregations.
type AggregationQuery struct {
	NestedQuery  *Query
	Aggregations []*Aggregation
}

// Aggregation is one named aggregation operator.
type Aggregation struct {
	Operator AggregationOperator
	Alias    string
}

// AggregationOperator is the oneof over the supported aggregations.
type AggregationOperator interface {
	isAggregationOperator()
}

// AggregationCount counts matching entities, capped at UpTo when non-zero.
type AggregationCount struct {
	UpTo int64
}

// AggregationSum sums a numeric property over matching entities.
type AggregationSum struct {
	Property *PropertyReference
}

// AggregationAvg averages a numeric property over matching entities.
type AggregationAvg struct {
	Property *PropertyReference
}

func (*AggregationCount) isAggregationOperator() {}
func (*AggregationSum) isAggregationOperator()   {}
func (*AggregationAvg) isAggregationOperator()   {}

// AggregationResult maps aggregation aliases to their scalar results.
type AggregationResult struct {
	AggregateProperties map[string]*Value
}

// AggregationResultBatch is the single batch of an aggregation query
// response.
type AggregationResultBatch struct {
	AggregationResults []*AggregationResult
	MoreResults        MoreResultsType
}
