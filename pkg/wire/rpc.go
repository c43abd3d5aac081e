package wire

import "google.golang.org/protobuf/types/known/timestamppb"

// ReadConsistency selects the non-transactional read mode.
type ReadConsistency int32

const (
	ReadConsistencyUnspecified ReadConsistency = 0
	ReadConsistencyStrong      ReadConsistency = 1
	ReadConsistencyEventual    ReadConsistency = 2
)

// ReadOptions selects how a read is executed.
type ReadOptions struct {
	ConsistencyType ConsistencyType
}

// ConsistencyType is the oneof between a consistency level and a
// transaction identifier.
type ConsistencyType interface {
	isConsistencyType()
}

// ConsistencyReadConsistency carries an explicit consistency level.
type ConsistencyReadConsistency struct {
	ReadConsistency ReadConsistency
}

// ConsistencyTransaction reads within the identified transaction.
type ConsistencyTransaction struct {
	Transaction []byte
}

func (*ConsistencyReadConsistency) isConsistencyType() {}
func (*ConsistencyTransaction) isConsistencyType()     {}

// LookupRequest fetches entities by key.
type LookupRequest struct {
	ProjectId   string
	DatabaseId  string
	ReadOptions *ReadOptions
	Keys        []*Key
}

// LookupResponse returns found and missing entities plus the keys the
// service deferred to a follow-up request.
type LookupResponse struct {
	Found    []*EntityResult
	Missing  []*EntityResult
	Deferred []*Key
}

// QueryType is the oneof over the query forms RunQueryRequest accepts.
type QueryType interface {
	isQueryType()
}

// QueryTypeQuery carries a structured query.
type QueryTypeQuery struct {
	Query *Query
}

func (*QueryTypeQuery) isQueryType() {}

// RunQueryRequest executes a query in one partition.
type RunQueryRequest struct {
	ProjectId   string
	DatabaseId  string
	PartitionId *PartitionId
	ReadOptions *ReadOptions
	QueryType   QueryType
}

// RunQueryResponse returns one batch of results.
type RunQueryResponse struct {
	Batch *QueryResultBatch
	Query *Query
}

// AggregationQueryType is the oneof over the aggregation query forms.
type AggregationQueryType interface {
	isAggregationQueryType()
}

// AggregationQueryTypeQuery carries a structured aggregation query.
type AggregationQueryTypeQuery struct {
	AggregationQuery *AggregationQuery
}

func (*AggregationQueryTypeQuery) isAggregationQueryType() {}

// RunAggregationQueryRequest executes an aggregation query in one partition.
type RunAggregationQueryRequest struct {
	ProjectId   string
	DatabaseId  string
	PartitionId *PartitionId
	ReadOptions *ReadOptions
	QueryType   AggregationQueryType
}

// RunAggregationQueryResponse returns the aggregation results.
type RunAggregationQueryResponse struct {
	Batch *AggregationResultBatch
	Query *AggregationQuery
}

// TransactionOptions selects the transaction mode.
type TransactionOptions struct {
	Mode TransactionMode
}

// TransactionMode is the oneof over read-write and read-only transactions.
type TransactionMode interface {
	isTransactionMode()
}

// TransactionModeReadWrite starts a read-write transaction, optionally
// retrying a previously failed one.
type TransactionModeReadWrite struct {
	PreviousTransaction []byte
}

// TransactionModeReadOnly starts a read-only transaction, optionally reading
// at a past time.
type TransactionModeReadOnly struct {
	ReadTime *timestamppb.Timestamp
}

func (*TransactionModeReadWrite) isTransactionMode() {}
func (*TransactionModeReadOnly) isTransactionMode()  {}

// BeginTransactionRequest starts a transaction.
type BeginTransactionRequest struct {
	ProjectId          string
	DatabaseId         string
	TransactionOptions *TransactionOptions
}

// BeginTransactionResponse carries the opaque transaction identifier.
type BeginTransactionResponse struct {
	Transaction []byte
}

// MutationOperation is the oneof over the four mutation kinds.
type MutationOperation interface {
	isMutationOperation()
}

// MutationInsert creates an entity; fails if the key already exists.
type MutationInsert struct {
	Insert *Entity
}

// MutationUpdate updates an entity; fails if the key does not exist.
type MutationUpdate struct {
	Update *Entity
}

// MutationUpsert creates or replaces an entity.
type MutationUpsert struct {
	Upsert *Entity
}

// MutationDelete removes the entity with the given key.
type MutationDelete struct {
	Delete *Key
}

func (*MutationInsert) isMutationOperation() {}
func (*MutationUpdate) isMutationOperation() {}
func (*MutationUpsert) isMutationOperation() {}
func (*MutationDelete) isMutationOperation() {}

// Mutation applies one operation to one entity.
type Mutation struct {
	Operation MutationOperation
}

// MutationResult reports the outcome of one mutation. Key is set only when
// the service generated an identifier.
type MutationResult struct {
	Key              *Key
	Version          int64
	ConflictDetected bool
}

// CommitMode selects transactional or immediate application of mutations.
type CommitMode int32

const (
	CommitModeUnspecified      CommitMode = 0
	CommitModeTransactional    CommitMode = 1
	CommitModeNonTransactional CommitMode = 2
)

// TransactionSelector is the oneof naming the transaction a commit applies
// to.
type TransactionSelector interface {
	isTransactionSelector()
}

// TransactionSelectorTransaction commits a previously begun transaction.
type TransactionSelectorTransaction struct {
	Transaction []byte
}

func (*TransactionSelectorTransaction) isTransactionSelector() {}

// CommitRequest applies mutations, immediately or within a transaction.
type CommitRequest struct {
	ProjectId           string
	DatabaseId          string
	Mode                CommitMode
	TransactionSelector TransactionSelector
	Mutations           []*Mutation
}

// CommitResponse reports per-mutation results in request order.
type CommitResponse struct {
	MutationResults []*MutationResult
	IndexUpdates    int32
}

// RollbackRequest abandons a transaction.
type RollbackRequest struct {
	ProjectId   string
	DatabaseId  string
	Transaction []byte
}

// RollbackResponse is empty.
type RollbackResponse struct{}

// AllocateIdsRequest reserves identifiers for the given incomplete keys.
type AllocateIdsRequest struct {
	ProjectId  string
	DatabaseId string
	Keys       []*Key
}

// AllocateIdsResponse returns the completed keys in request order.
type AllocateIdsResponse struct {
	Keys []*Key
}
