package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/pitchroom-backend/internal/data/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
)

// InjectedTxRunner wraps a runner with failure injection. With Inner set the body runs in a
// real transaction and an injected commit failure rolls it back.
type InjectedTxRunner struct {
	mu sync.Mutex

	Inner aggregates.TxRunner

	FailBegin      error
	FailBeforeBody error
	FailCommit     error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.countRollback()
		return failBeforeBody
	}
	if fn == nil {
		r.countCommit()
		return nil
	}

	body := func(dbc dbctx.Context) error {
		if err := fn(dbc); err != nil {
			return err
		}
		return failCommit
	}
	var err error
	if r.Inner != nil {
		err = r.Inner.InTx(ctx, body)
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}
	if err != nil {
		r.countRollback()
		return err
	}
	r.countCommit()
	return nil
}

func (r *InjectedTxRunner) countCommit() {
	r.mu.Lock()
	r.CommitCalls++
	r.mu.Unlock()
}

func (r *InjectedTxRunner) countRollback() {
	r.mu.Lock()
	r.RollbackCalls++
	r.mu.Unlock()
}
