package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithUndoCompensatesNewestFirst(t *testing.T) {
	var undone []string
	step := func(name string, err error) func(context.Context) error {
		return func(ctx context.Context) error {
			assert.NoError(t, ctx.Err(), "compensation outlives the request")
			undone = append(undone, name)
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	err := runWithUndo(ctx, func(ctx context.Context) error {
		log := undoLogFrom(ctx)
		require.NotNil(t, log)
		log.push(step("create", nil))
		log.push(step("update", errors.New("replace failed")))
		log.push(step("delete", nil))
		cancel()
		return errors.New("disk full")
	})

	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.ErrorContains(t, err, "compensate: replace failed")
	assert.Equal(t, []string{"delete", "update", "create"}, undone, "every step runs even after one fails")
}

func TestRunWithUndoKeepsWritesOnSuccess(t *testing.T) {
	undone := 0
	err := runWithUndo(context.Background(), func(ctx context.Context) error {
		undoLogFrom(ctx).push(func(context.Context) error {
			undone++
			return nil
		})
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, undone)

	fnErr := errors.New("constraint violation")
	err = runWithUndo(context.Background(), func(context.Context) error { return fnErr })
	assert.Same(t, fnErr, err, "nothing to compensate")
}

func TestUndoLogOutsideBatch(t *testing.T) {
	log := undoLogFrom(context.Background())
	assert.Nil(t, log)
	assert.NotPanics(t, func() { log.push(func(context.Context) error { return nil }) })
}
