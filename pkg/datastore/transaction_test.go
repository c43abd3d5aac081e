// ABOUTME: Tests for mutation-accumulating transactions
// ABOUTME: Verifies begin modes, transactional reads, commit and rollback

package datastore

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/nainya/cloudstore/pkg/wire"
)

func beginWithID(id []byte, capture **wire.BeginTransactionRequest) func(context.Context, *wire.BeginTransactionRequest) (*wire.BeginTransactionResponse, error) {
	return func(_ context.Context, req *wire.BeginTransactionRequest) (*wire.BeginTransactionResponse, error) {
		if capture != nil {
			*capture = req
		}
		return &wire.BeginTransactionResponse{Transaction: id}, nil
	}
}

func TestNewTransactionModes(t *testing.T) {
	var captured *wire.BeginTransactionRequest
	svc := &fakeService{begin: beginWithID([]byte("tx"), &captured)}
	c := newTestClient(t, svc)
	ctx := context.Background()

	tx, err := c.NewTransaction(ctx, TransactionDefault, nil)
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if captured.TransactionOptions != nil {
		t.Errorf("default mode should carry no options, got %#v", captured.TransactionOptions)
	}
	if !bytes.Equal(tx.ID(), []byte("tx")) {
		t.Errorf("id = %q", tx.ID())
	}

	if _, err := c.NewTransaction(ctx, TransactionReadOnly, nil); err != nil {
		t.Fatalf("read-only: %v", err)
	}
	if _, ok := captured.TransactionOptions.Mode.(*wire.TransactionModeReadOnly); !ok {
		t.Errorf("read-only mode = %#v", captured.TransactionOptions)
	}

	if _, err := c.NewTransaction(ctx, TransactionReadWrite, []byte("prev")); err != nil {
		t.Fatalf("read-write: %v", err)
	}
	rw, ok := captured.TransactionOptions.Mode.(*wire.TransactionModeReadWrite)
	if !ok || !bytes.Equal(rw.PreviousTransaction, []byte("prev")) {
		t.Errorf("read-write mode = %#v", captured.TransactionOptions)
	}
}

func TestTransactionReadsCarryID(t *testing.T) {
	var lookupOpts, queryOpts *wire.ReadOptions
	svc := &fakeService{
		begin: beginWithID([]byte("tx"), nil),
		lookup: func(_ context.Context, req *wire.LookupRequest) (*wire.LookupResponse, error) {
			lookupOpts = req.ReadOptions
			return &wire.LookupResponse{}, nil
		},
		runQuery: func(_ context.Context, req *wire.RunQueryRequest) (*wire.RunQueryResponse, error) {
			queryOpts = req.ReadOptions
			return &wire.RunQueryResponse{Batch: &wire.QueryResultBatch{
				MoreResults: wire.MoreResultsTypeNoMore,
			}}, nil
		},
	}
	c := newTestClient(t, svc)
	ctx := context.Background()

	tx, err := c.NewTransaction(ctx, TransactionDefault, nil)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}

	if _, err := tx.GetAll(ctx, []*Key{IDKey("task", 1, nil)}); err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if ct, ok := lookupOpts.ConsistencyType.(*wire.ConsistencyTransaction); !ok || !bytes.Equal(ct.Transaction, []byte("tx")) {
		t.Errorf("lookup consistency = %#v", lookupOpts.ConsistencyType)
	}

	if _, _, err := tx.Run(ctx, NewQuery("task")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ct, ok := queryOpts.ConsistencyType.(*wire.ConsistencyTransaction); !ok || !bytes.Equal(ct.Transaction, []byte("tx")) {
		t.Errorf("query consistency = %#v", queryOpts.ConsistencyType)
	}
}

func TestTransactionCommit(t *testing.T) {
	var captured *wire.CommitRequest
	generated := IDKey("task", 55, nil)
	svc := &fakeService{
		begin: beginWithID([]byte("tx"), nil),
		commit: func(_ context.Context, req *wire.CommitRequest) (*wire.CommitResponse, error) {
			captured = req
			return &wire.CommitResponse{MutationResults: []*wire.MutationResult{
				{Key: toWireKey("proj", generated)},
				{},
				{},
			}}, nil
		},
	}
	c := newTestClient(t, svc)
	ctx := context.Background()

	tx, err := c.NewTransaction(ctx, TransactionDefault, nil)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}

	inserted, _ := NewEntity(IncompleteKey("task", nil), map[string]string{"n": "a"})
	updated, _ := NewEntity(IDKey("task", 1, nil), map[string]string{"n": "b"})
	if err := tx.Put(inserted); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := tx.Put(updated); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := tx.Delete(IDKey("task", 2, nil)); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if captured != nil {
		t.Fatal("nothing should be sent before Commit")
	}

	keys, err := tx.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if captured.Mode != wire.CommitModeTransactional {
		t.Errorf("mode = %d", captured.Mode)
	}
	sel, ok := captured.TransactionSelector.(*wire.TransactionSelectorTransaction)
	if !ok || !bytes.Equal(sel.Transaction, []byte("tx")) {
		t.Errorf("selector = %#v", captured.TransactionSelector)
	}
	if len(captured.Mutations) != 3 {
		t.Fatalf("mutation count = %d", len(captured.Mutations))
	}
	// Call order is preserved.
	if _, ok := captured.Mutations[0].Operation.(*wire.MutationInsert); !ok {
		t.Errorf("mutation[0] = %#v", captured.Mutations[0].Operation)
	}
	if _, ok := captured.Mutations[1].Operation.(*wire.MutationUpsert); !ok {
		t.Errorf("mutation[1] = %#v", captured.Mutations[1].Operation)
	}
	if _, ok := captured.Mutations[2].Operation.(*wire.MutationDelete); !ok {
		t.Errorf("mutation[2] = %#v", captured.Mutations[2].Operation)
	}

	if len(keys) != 3 || !keys[0].Equal(generated) || keys[1] != nil || keys[2] != nil {
		t.Errorf("keys = %v", keys)
	}
}

func TestTransactionDeleteIncomplete(t *testing.T) {
	svc := &fakeService{begin: beginWithID([]byte("tx"), nil)}
	c := newTestClient(t, svc)

	tx, err := c.NewTransaction(context.Background(), TransactionDefault, nil)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Delete(IncompleteKey("task", nil)); !errors.Is(err, ErrIncompleteKey) {
		t.Errorf("err = %v", err)
	}
	if len(tx.mutations) != 0 {
		t.Error("failed delete should append nothing")
	}
}

func TestTransactionFinishedGuards(t *testing.T) {
	svc := &fakeService{
		begin: beginWithID([]byte("tx"), nil),
		commit: func(_ context.Context, _ *wire.CommitRequest) (*wire.CommitResponse, error) {
			return &wire.CommitResponse{}, nil
		},
	}
	c := newTestClient(t, svc)
	ctx := context.Background()

	tx, err := c.NewTransaction(ctx, TransactionDefault, nil)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if _, err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ent, _ := NewEntity(IDKey("task", 1, nil), map[string]string{"n": "a"})
	if err := tx.Put(ent); !errors.Is(err, ErrTransactionFinished) {
		t.Errorf("Put after commit: %v", err)
	}
	if err := tx.Delete(IDKey("task", 1, nil)); !errors.Is(err, ErrTransactionFinished) {
		t.Errorf("Delete after commit: %v", err)
	}
	if _, err := tx.Commit(ctx); !errors.Is(err, ErrTransactionFinished) {
		t.Errorf("second Commit: %v", err)
	}
	if err := tx.Rollback(ctx); !errors.Is(err, ErrTransactionFinished) {
		t.Errorf("Rollback after commit: %v", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	var captured *wire.RollbackRequest
	svc := &fakeService{
		begin: beginWithID([]byte("tx"), nil),
		rollback: func(_ context.Context, req *wire.RollbackRequest) (*wire.RollbackResponse, error) {
			captured = req
			return &wire.RollbackResponse{}, nil
		},
	}
	c := newTestClient(t, svc)
	ctx := context.Background()

	tx, err := c.NewTransaction(ctx, TransactionDefault, nil)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if !bytes.Equal(captured.Transaction, []byte("tx")) {
		t.Errorf("rollback transaction = %q", captured.Transaction)
	}
}

func TestTransactionRollbackTransportError(t *testing.T) {
	boom := errors.New("unavailable")
	svc := &fakeService{
		begin: beginWithID([]byte("tx"), nil),
		rollback: func(_ context.Context, _ *wire.RollbackRequest) (*wire.RollbackResponse, error) {
			return nil, boom
		},
	}
	c := newTestClient(t, svc)
	ctx := context.Background()

	tx, err := c.NewTransaction(ctx, TransactionDefault, nil)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Rollback(ctx); !errors.Is(err, boom) {
		t.Errorf("transport error should come back unchanged, got %v", err)
	}
}
