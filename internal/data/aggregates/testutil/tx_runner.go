package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/neurobridge-grading/internal/data/aggregates"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
)

// InjectedTxRunner wraps a real runner and injects failures around the body.
// A FailCommit error is returned from inside the transaction so Inner rolls back
// everything the body wrote. With a nil Inner the body runs without a transaction.
type InjectedTxRunner struct {
	Inner aggregates.TxRunner

	mu             sync.Mutex
	FailBegin      error
	FailCommit     error
	FailCommitOnce bool

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failCommit := r.FailCommit
	if r.FailCommitOnce {
		r.FailCommit = nil
	}
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		return failCommit
	}
	var err error
	if r.Inner != nil {
		err = r.Inner.InTx(ctx, body)
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
	} else {
		r.CommitCalls++
	}
	return err
}
