package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// undoLog collects compensating writes for a batch run without a server
// transaction. Steps are replayed newest first when the batch fails.
type undoLog struct {
	mu    sync.Mutex
	steps []func(ctx context.Context) error
}

type undoLogKey struct{}

func withUndoLog(ctx context.Context, log *undoLog) context.Context {
	return context.WithValue(ctx, undoLogKey{}, log)
}

// undoLogFrom returns the batch's log, or nil outside a batch
func undoLogFrom(ctx context.Context) *undoLog {
	log, _ := ctx.Value(undoLogKey{}).(*undoLog)
	return log
}

func (l *undoLog) push(step func(ctx context.Context) error) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.steps = append(l.steps, step)
	l.mu.Unlock()
}

func (l *undoLog) rollback(ctx context.Context) error {
	l.mu.Lock()
	steps := l.steps
	l.steps = nil
	l.mu.Unlock()

	// a cancelled request must still compensate
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runWithUndo runs fn with an undo log in its context. When fn fails the
// logged compensations are applied and their failures joined to fn's error.
func runWithUndo(ctx context.Context, fn func(ctx context.Context) error) error {
	log := &undoLog{}
	err := fn(withUndoLog(ctx, log))
	if err == nil {
		return nil
	}
	if rerr := log.rollback(ctx); rerr != nil {
		return errors.Join(err, fmt.Errorf("compensate: %w", rerr))
	}
	return err
}
