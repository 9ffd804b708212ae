package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/blob"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/storage/memory"
)

type fixture struct {
	svc   *Services
	store *memory.Store
	blobs *blob.MemoryStore
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	blobs := blob.NewMemoryStore()
	return &fixture{
		svc:   New(store, blobs, DefaultOptions()),
		store: store,
		blobs: blobs,
		ctx:   context.Background(),
	}
}

func (f *fixture) user(t *testing.T, name string, role user.Role) *user.User {
	t.Helper()
	u, err := f.svc.Users.EnsureUser(f.ctx, identity.Identity{
		SubjectID:   "sub-" + name,
		Email:       name + "@example.com",
		DisplayName: name,
	})
	require.NoError(t, err)
	if role != u.Role {
		u, err = f.svc.Users.SetRole(f.ctx, u.SubjectID, string(role))
		require.NoError(t, err)
	}
	return u
}

func (f *fixture) event(t *testing.T, organizer *user.User, name string) *event.Event {
	t.Helper()
	e, err := f.svc.Events.CreateEvent(f.ctx, organizer, EventInput{
		Name:        name,
		Description: "An event",
		Location:    "HQ",
		StartTime:   time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) join(t *testing.T, attendee *user.User, e *event.Event) {
	t.Helper()
	_, err := f.svc.Events.JoinEvent(f.ctx, attendee, e.JoinCode)
	require.NoError(t, err)
}
