package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKindSentinel(t *testing.T) {
	err := NewConflict("already joined")

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "already joined", err.Error())
}

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("join event: %w", NewAuthorization("only attendees can join events"))

	assert.Equal(t, KindAuthorization, KindOf(err))
	assert.True(t, IsKind(err, KindAuthorization))
	assert.Equal(t, "only attendees can join events", Message(err))
}

func TestKindOfUntypedErrors(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindTimeout, KindOf(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.Equal(t, "internal server error", Message(errors.New("boom")))
}

func TestWrapStorage(t *testing.T) {
	assert.NoError(t, WrapStorage("noop", nil))

	err := WrapStorage("failed to load event", errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, "failed to load event: connection reset", err.Error())

	err = WrapStorage("failed to load event", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	typed := NewNotFound("event not found")
	assert.Same(t, typed, WrapStorage("ignored", typed))
}
