// ABOUTME: Datastore client over an opaque RPC channel
// ABOUTME: Lookup batching, mutation commits, paginated queries, aggregations

package datastore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/grpc/metadata"

	"github.com/nainya/cloudstore/internal/logger"
	"github.com/nainya/cloudstore/internal/metrics"
	"github.com/nainya/cloudstore/pkg/wire"
)

// Service is the RPC channel to the Datastore backend. Implementations own
// connection lifecycle and transport concerns; the client only shapes
// request and response payloads. Transport failures are surfaced to callers
// unchanged.
type Service interface {
	Lookup(ctx context.Context, req *wire.LookupRequest) (*wire.LookupResponse, error)
	RunQuery(ctx context.Context, req *wire.RunQueryRequest) (*wire.RunQueryResponse, error)
	RunAggregationQuery(ctx context.Context, req *wire.RunAggregationQueryRequest) (*wire.RunAggregationQueryResponse, error)
	BeginTransaction(ctx context.Context, req *wire.BeginTransactionRequest) (*wire.BeginTransactionResponse, error)
	Commit(ctx context.Context, req *wire.CommitRequest) (*wire.CommitResponse, error)
	Rollback(ctx context.Context, req *wire.RollbackRequest) (*wire.RollbackResponse, error)
	AllocateIds(ctx context.Context, req *wire.AllocateIdsRequest) (*wire.AllocateIdsResponse, error)
}

// Config holds client configuration.
type Config struct {
	// ProjectID scopes every request. Required.
	ProjectID string

	// DatabaseID selects a named database; empty means the default.
	DatabaseID string

	// Service is the RPC channel. Required.
	Service Service

	// TokenSource supplies bearer tokens attached to each request. Optional;
	// when nil, requests carry no authorization metadata.
	TokenSource oauth2.TokenSource

	// IndexPolicy is the exclude-from-indexes policy. When nil, the policy
	// is loaded from the file named by the INDEX_EXCLUDED environment
	// variable, defaulting to no exclusions.
	IndexPolicy *IndexPolicy

	// Logger receives structured client logs. Optional.
	Logger *logger.Logger

	// Metrics receives client operation metrics. Optional.
	Metrics *metrics.Metrics
}

// Client converts between the value model and the wire protocol and drives
// the RPC channel. All conversion paths are pure; a Client is safe for
// concurrent use.
type Client struct {
	projectID  string
	databaseID string
	service    Service
	tokens     oauth2.TokenSource
	policy     *IndexPolicy
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a client for one project over the given RPC channel.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("datastore: config missing project ID")
	}
	if cfg.Service == nil {
		return nil, errors.New("datastore: config missing service")
	}
	policy := cfg.IndexPolicy
	if policy == nil {
		var err error
		policy, err = IndexPolicyFromEnv()
		if err != nil {
			return nil, err
		}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		projectID:  cfg.ProjectID,
		databaseID: cfg.DatabaseID,
		service:    cfg.Service,
		tokens:     cfg.TokenSource,
		policy:     policy,
		log:        log,
		metrics:    cfg.Metrics,
	}
	log.LogClientReady(cfg.ProjectID, policy.Kinds())
	return c, nil
}

// callContext attaches the bearer token to the outgoing request metadata.
// Token refresh is the token source's concern.
func (c *Client) callContext(ctx context.Context) (context.Context, error) {
	if c.tokens == nil {
		return ctx, nil
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("datastore: fetch token: %w", err)
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", tok.Type()+" "+tok.AccessToken), nil
}

// observe records one RPC exchange in the logger and, when configured, the
// metrics.
func (c *Client) observe(method string, start time.Time, err error) {
	duration := time.Since(start)
	c.log.LogRPC(method, duration, err)
	if c.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordRPC(method, status, duration)
	}
}

// Get fetches the entity under key, or ErrNoSuchEntity if none exists.
func (c *Client) Get(ctx context.Context, key *Key) (*Entity, error) {
	results, err := c.GetAll(ctx, []*Key{key})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoSuchEntity
	}
	return results[0], nil
}

// GetAll fetches entities for the given keys. The result preserves request
// order; keys without an entity are omitted, not errors.
func (c *Client) GetAll(ctx context.Context, keys []*Key) ([]*Entity, error) {
	return c.getAll(ctx, keys, nil)
}

// lookupKey renders a key for associating response entities with request
// keys. Unlike String, every component is length-prefixed and the identifier
// form is marked, so an ID key and a numerically equal name key (or names
// containing path punctuation) never collide.
func lookupKey(k *Key) string {
	if k == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(k.Namespace)))
	b.WriteByte(':')
	b.WriteString(k.Namespace)
	lookupPath(&b, k)
	return b.String()
}

func lookupPath(b *strings.Builder, k *Key) {
	if k.Parent != nil {
		lookupPath(b, k.Parent)
	}
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(len(k.Kind)))
	b.WriteByte(':')
	b.WriteString(k.Kind)
	if k.Name != "" {
		b.WriteByte('n')
		b.WriteString(strconv.Itoa(len(k.Name)))
		b.WriteByte(':')
		b.WriteString(k.Name)
	} else {
		b.WriteByte('i')
		b.WriteString(strconv.FormatInt(k.ID, 10))
	}
}

// getAll loops lookup rounds until the service stops deferring keys.
// Any transport or decoding failure aborts the whole batch.
func (c *Client) getAll(ctx context.Context, keys []*Key, txID []byte) ([]*Entity, error) {
	outstanding := make([]*wire.Key, len(keys))
	for i, k := range keys {
		outstanding[i] = toWireKey(c.projectID, k)
	}

	found := make(map[string]*Entity)
	for len(outstanding) > 0 {
		req := &wire.LookupRequest{
			ProjectId:  c.projectID,
			DatabaseId: c.databaseID,
			Keys:       outstanding,
		}
		if txID != nil {
			req.ReadOptions = &wire.ReadOptions{
				ConsistencyType: &wire.ConsistencyTransaction{Transaction: txID},
			}
		}

		cctx, err := c.callContext(ctx)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := c.service.Lookup(cctx, req)
		c.observe("Lookup", start, err)
		if err != nil {
			return nil, err
		}

		for _, er := range resp.Found {
			ent := entityFromWire(er.Entity)
			found[lookupKey(ent.Key)] = ent
		}
		if c.metrics != nil {
			c.metrics.LookupDeferredTotal.Add(float64(len(resp.Deferred)))
			c.metrics.EntitiesReadTotal.Add(float64(len(resp.Found)))
		}
		outstanding = resp.Deferred
	}

	out := make([]*Entity, 0, len(keys))
	for _, k := range keys {
		if ent, ok := found[lookupKey(k)]; ok {
			out = append(out, ent)
		}
	}
	return out, nil
}

// Put writes one entity and returns the server-generated key, or nil when
// the entity's key was already complete.
func (c *Client) Put(ctx context.Context, entity *Entity) (*Key, error) {
	keys, err := c.PutAll(ctx, []*Entity{entity})
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return keys[0], nil
}

// PutAll writes entities in one commit. An entity is inserted when its key
// is marked new or incomplete, upserted otherwise. The returned slice holds
// the server-generated key per mutation, nil where the server returned none.
func (c *Client) PutAll(ctx context.Context, entities []*Entity) ([]*Key, error) {
	mutations := make([]*wire.Mutation, len(entities))
	for i, e := range entities {
		mutations[i] = c.putMutation(e)
	}
	resp, err := c.commit(ctx, mutations, wire.CommitModeNonTransactional, nil)
	if err != nil {
		return nil, err
	}
	keys := make([]*Key, len(resp.MutationResults))
	for i, mr := range resp.MutationResults {
		if mr.Key != nil {
			keys[i] = keyFromWire(mr.Key)
		}
	}
	return keys, nil
}

// putMutation classifies one entity write as insert or upsert.
func (c *Client) putMutation(e *Entity) *wire.Mutation {
	we := toWireEntity(c.projectID, e, c.policy)
	if e.Key.New || e.Key.Incomplete() {
		if c.metrics != nil {
			c.metrics.RecordMutation("insert")
		}
		return &wire.Mutation{Operation: &wire.MutationInsert{Insert: we}}
	}
	if c.metrics != nil {
		c.metrics.RecordMutation("upsert")
	}
	return &wire.Mutation{Operation: &wire.MutationUpsert{Upsert: we}}
}

// Delete removes the entity under key. The key must be fully identified.
func (c *Client) Delete(ctx context.Context, key *Key) error {
	return c.DeleteAll(ctx, []*Key{key})
}

// DeleteAll removes entities in one commit. Incomplete keys fail validation
// before anything is sent.
func (c *Client) DeleteAll(ctx context.Context, keys []*Key) error {
	mutations, err := c.deleteMutations(keys)
	if err != nil {
		return err
	}
	_, err = c.commit(ctx, mutations, wire.CommitModeNonTransactional, nil)
	return err
}

func (c *Client) deleteMutations(keys []*Key) ([]*wire.Mutation, error) {
	mutations := make([]*wire.Mutation, len(keys))
	for i, k := range keys {
		if k.Incomplete() {
			return nil, fmt.Errorf("%w: cannot delete %q", ErrIncompleteKey, k.Kind)
		}
		if c.metrics != nil {
			c.metrics.RecordMutation("delete")
		}
		mutations[i] = &wire.Mutation{
			Operation: &wire.MutationDelete{Delete: toWireKey(c.projectID, k)},
		}
	}
	return mutations, nil
}

func (c *Client) commit(ctx context.Context, mutations []*wire.Mutation, mode wire.CommitMode, selector wire.TransactionSelector) (*wire.CommitResponse, error) {
	req := &wire.CommitRequest{
		ProjectId:           c.projectID,
		DatabaseId:          c.databaseID,
		Mode:                mode,
		TransactionSelector: selector,
		Mutations:           mutations,
	}
	cctx, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.service.Commit(cctx, req)
	c.observe("Commit", start, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// AllocateIDs reserves identifiers for incomplete keys ahead of a write and
// returns the completed keys in request order.
func (c *Client) AllocateIDs(ctx context.Context, keys []*Key) ([]*Key, error) {
	req := &wire.AllocateIdsRequest{
		ProjectId:  c.projectID,
		DatabaseId: c.databaseID,
		Keys:       make([]*wire.Key, len(keys)),
	}
	for i, k := range keys {
		req.Keys[i] = toWireKey(c.projectID, k)
	}
	cctx, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.service.AllocateIds(cctx, req)
	c.observe("AllocateIds", start, err)
	if err != nil {
		return nil, err
	}
	out := make([]*Key, len(resp.Keys))
	for i, wk := range resp.Keys {
		out[i] = keyFromWire(wk)
	}
	return out, nil
}

// Run executes a query, following continuation cursors until the service
// reports the result set finished. It returns the accumulated entities in
// response order and the final end cursor.
func (c *Client) Run(ctx context.Context, q *Query) ([]*Entity, []byte, error) {
	return c.run(ctx, q, nil)
}

// run is the pagination loop. Each iteration rebuilds the wire query from
// the caller's original specification; only the cursor threads across
// iterations.
func (c *Client) run(ctx context.Context, q *Query, txID []byte) ([]*Entity, []byte, error) {
	var out []*Entity
	cursor := q.Cursor

	for {
		req := &wire.RunQueryRequest{
			ProjectId:  c.projectID,
			DatabaseId: c.databaseID,
			PartitionId: &wire.PartitionId{
				ProjectId:   c.projectID,
				NamespaceId: q.Namespace,
			},
			ReadOptions: readOptions(txID, q.Eventual),
			QueryType:   &wire.QueryTypeQuery{Query: toWireQuery(c.projectID, q, cursor)},
		}

		cctx, err := c.callContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		start := time.Now()
		resp, err := c.service.RunQuery(cctx, req)
		c.observe("RunQuery", start, err)
		if err != nil {
			return nil, nil, err
		}
		if resp.Batch == nil {
			return nil, nil, errors.New("datastore: query response missing result batch")
		}

		for _, er := range resp.Batch.EntityResults {
			out = append(out, entityFromWire(er.Entity))
		}
		if c.metrics != nil {
			c.metrics.QueryPagesTotal.Inc()
			c.metrics.EntitiesReadTotal.Add(float64(len(resp.Batch.EntityResults)))
		}

		if resp.Batch.MoreResults != wire.MoreResultsTypeNotFinished {
			return out, resp.Batch.EndCursor, nil
		}
		cursor = resp.Batch.EndCursor
	}
}

// RunAggregation executes aggregations over a base query and returns one
// entity-variant value per result row, keyed by aggregation alias.
func (c *Client) RunAggregation(ctx context.Context, aggs []Aggregation, q *Query) ([]Value, error) {
	return c.runAggregation(ctx, aggs, q, nil)
}

func (c *Client) runAggregation(ctx context.Context, aggs []Aggregation, q *Query, txID []byte) ([]Value, error) {
	req := &wire.RunAggregationQueryRequest{
		ProjectId:  c.projectID,
		DatabaseId: c.databaseID,
		PartitionId: &wire.PartitionId{
			ProjectId:   c.projectID,
			NamespaceId: q.Namespace,
		},
		ReadOptions: readOptions(txID, q.Eventual),
		QueryType: &wire.AggregationQueryTypeQuery{
			AggregationQuery: toWireAggregationQuery(c.projectID, aggs, q, q.Cursor),
		},
	}

	cctx, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.service.RunAggregationQuery(cctx, req)
	c.observe("RunAggregationQuery", start, err)
	if err != nil {
		return nil, err
	}
	if resp.Batch == nil {
		return nil, errors.New("datastore: aggregation response missing result batch")
	}
	return aggregationResultsFromWire(resp.Batch.AggregationResults), nil
}

// readOptions selects the read mode: a transaction wins over an explicit
// consistency level.
func readOptions(txID []byte, eventual bool) *wire.ReadOptions {
	if txID != nil {
		return &wire.ReadOptions{
			ConsistencyType: &wire.ConsistencyTransaction{Transaction: txID},
		}
	}
	consistency := wire.ReadConsistencyStrong
	if eventual {
		consistency = wire.ReadConsistencyEventual
	}
	return &wire.ReadOptions{
		ConsistencyType: &wire.ConsistencyReadConsistency{ReadConsistency: consistency},
	}
}
