// ABOUTME: Transaction wrapper accumulating mutations until commit
// ABOUTME: Reads and queries inside a transaction carry its identifier

package datastore

import (
	"context"
	"time"

	"github.com/nainya/cloudstore/pkg/wire"
)

// TransactionMode selects how a transaction is begun.
type TransactionMode uint8

const (
	// TransactionDefault begins a transaction without options.
	TransactionDefault TransactionMode = iota
	// TransactionReadOnly begins a read-only transaction.
	TransactionReadOnly
	// TransactionReadWrite begins a read-write transaction; a previous
	// transaction identifier may be supplied to retry a rolled-back one.
	TransactionReadWrite
)

// Transaction batches mutations over one Datastore transaction. Puts and
// deletes append to a pending mutation list in call order and are sent in a
// single request on Commit. A Transaction is owned by one caller; concurrent
// use must be serialized externally.
type Transaction struct {
	client    *Client
	id        []byte
	mutations []*wire.Mutation
	finished  bool
}

// NewTransaction begins a transaction. previous is only consulted in
// read-write mode, to retry a transaction that was rolled back.
func (c *Client) NewTransaction(ctx context.Context, mode TransactionMode, previous []byte) (*Transaction, error) {
	var opts *wire.TransactionOptions
	switch mode {
	case TransactionReadOnly:
		opts = &wire.TransactionOptions{Mode: &wire.TransactionModeReadOnly{}}
	case TransactionReadWrite:
		if previous != nil {
			opts = &wire.TransactionOptions{
				Mode: &wire.TransactionModeReadWrite{PreviousTransaction: previous},
			}
		}
	}

	req := &wire.BeginTransactionRequest{
		ProjectId:          c.projectID,
		DatabaseId:         c.databaseID,
		TransactionOptions: opts,
	}
	cctx, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.service.BeginTransaction(cctx, req)
	c.observe("BeginTransaction", start, err)
	if err != nil {
		return nil, err
	}
	return &Transaction{client: c, id: resp.Transaction}, nil
}

// ID returns the opaque transaction identifier.
func (t *Transaction) ID() []byte {
	return t.id
}

// Get fetches one entity within the transaction.
func (t *Transaction) Get(ctx context.Context, key *Key) (*Entity, error) {
	results, err := t.GetAll(ctx, []*Key{key})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoSuchEntity
	}
	return results[0], nil
}

// GetAll fetches entities within the transaction, with the same ordering
// and omission contract as Client.GetAll.
func (t *Transaction) GetAll(ctx context.Context, keys []*Key) ([]*Entity, error) {
	return t.client.getAll(ctx, keys, t.id)
}

// Put appends a write mutation. Nothing is sent until Commit.
func (t *Transaction) Put(entity *Entity) error {
	return t.PutAll([]*Entity{entity})
}

// PutAll appends write mutations in caller order. Nothing is sent until
// Commit.
func (t *Transaction) PutAll(entities []*Entity) error {
	if t.finished {
		return ErrTransactionFinished
	}
	for _, e := range entities {
		t.mutations = append(t.mutations, t.client.putMutation(e))
	}
	return nil
}

// Delete appends a delete mutation. The key must be fully identified.
func (t *Transaction) Delete(key *Key) error {
	return t.DeleteAll([]*Key{key})
}

// DeleteAll appends delete mutations. Incomplete keys fail validation.
func (t *Transaction) DeleteAll(keys []*Key) error {
	if t.finished {
		return ErrTransactionFinished
	}
	mutations, err := t.client.deleteMutations(keys)
	if err != nil {
		return err
	}
	t.mutations = append(t.mutations, mutations...)
	return nil
}

// Run executes a query within the transaction.
func (t *Transaction) Run(ctx context.Context, q *Query) ([]*Entity, []byte, error) {
	return t.client.run(ctx, q, t.id)
}

// RunAggregation executes aggregations within the transaction.
func (t *Transaction) RunAggregation(ctx context.Context, aggs []Aggregation, q *Query) ([]Value, error) {
	return t.client.runAggregation(ctx, aggs, q, t.id)
}

// Commit sends the accumulated mutations in one transactional request and
// returns the server-generated key per mutation, nil where the server
// returned none. Delete mutations return nothing.
func (t *Transaction) Commit(ctx context.Context) ([]*Key, error) {
	if t.finished {
		return nil, ErrTransactionFinished
	}
	t.finished = true

	resp, err := t.client.commit(ctx, t.mutations, wire.CommitModeTransactional,
		&wire.TransactionSelectorTransaction{Transaction: t.id})
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

// Rollback abandons the transaction.
func (t *Transaction) Rollback(ctx context.Context) error {
	if t.finished {
		return ErrTransactionFinished
	}
	t.finished = true

	req := &wire.RollbackRequest{
		ProjectId:   t.client.projectID,
		DatabaseId:  t.client.databaseID,
		Transaction: t.id,
	}
	cctx, err := t.client.callContext(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = t.client.service.Rollback(cctx, req)
	t.client.observe("Rollback", start, err)
	return err
}
