package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
	"github.com/gravadigital/eventhub-api/internal/storage/repository/repotest"
)

func TestMemoryStore(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Container {
		return NewStore()
	})
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewStore()
	_, err := store.Events().ListByOrganizer(ctx, uuid.Nil)
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	store := NewStore()
	org := repotest.NewUser(t, store, "org", user.RoleOrganizer)
	e := repotest.NewEvent(t, store, org, "Launch", org.CreatedAt)

	got, err := store.Events().GetByID(context.Background(), e.ID)
	assert.NoError(t, err)
	got.Name = "mutated"

	again, err := store.Events().GetByID(context.Background(), e.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Launch", again.Name)
}
