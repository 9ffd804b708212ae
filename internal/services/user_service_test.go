package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/storage/memory"
)

func TestEnsureUserIsIdempotent(t *testing.T) {
	f := newFixture(t)
	id := identity.Identity{SubjectID: "sub-1", Email: "Ada@Example.com", DisplayName: "<b>Ada</b>"}

	first, err := f.svc.Users.EnsureUser(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAttendee, first.Role)
	assert.Equal(t, "Ada", first.DisplayName)
	assert.Equal(t, "ada@example.com", first.Email)

	second, err := f.svc.Users.EnsureUser(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestEnsureUserConcurrentFirstLogin(t *testing.T) {
	f := newFixture(t)
	id := identity.Identity{SubjectID: "sub-race", Email: "race@example.com", DisplayName: "Race"}

	var wg sync.WaitGroup
	ids := make(chan string, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := f.svc.Users.EnsureUser(f.ctx, id)
			if assert.NoError(t, err) {
				ids <- u.ID.String()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1)
}

func TestEnsureUserEmailClash(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Users.EnsureUser(f.ctx, identity.Identity{SubjectID: "a", Email: "same@example.com"})
	require.NoError(t, err)

	_, err = f.svc.Users.EnsureUser(f.ctx, identity.Identity{SubjectID: "b", Email: "same@example.com"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestEnsureUserDefaultsNameFromEmail(t *testing.T) {
	f := newFixture(t)
	u, err := f.svc.Users.EnsureUser(f.ctx, identity.Identity{SubjectID: "x", Email: "grace@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "grace", u.DisplayName)
}

func TestEnsureUserValidatesProfile(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Users.EnsureUser(f.ctx, identity.Identity{
		SubjectID:   "long",
		Email:       "long@example.com",
		DisplayName: strings.Repeat("n", 101),
	})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.Users.EnsureUser(f.ctx, identity.Identity{SubjectID: "no-email"})
	if assert.ErrorIs(t, err, common.ErrValidation) {
		assert.Contains(t, err.Error(), "/auth/login")
	}

	u, err := f.svc.Users.EnsureUser(f.ctx, identity.Identity{
		SubjectID:   "exact",
		Email:       "exact@example.com",
		DisplayName: strings.Repeat("n", 100),
	})
	require.NoError(t, err)
	assert.Len(t, u.DisplayName, 100)
}

func TestGetUserNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Users.GetUser(f.ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada", user.RoleAttendee)

	_, err := f.svc.Users.SetRole(f.ctx, u.SubjectID, "admin")
	assert.ErrorIs(t, err, common.ErrValidation)

	updated, err := f.svc.Users.SetRole(f.ctx, u.SubjectID, "Organizer")
	require.NoError(t, err)
	assert.Equal(t, user.RoleOrganizer, updated.Role)
}

func TestSetRoleClosedSelfService(t *testing.T) {
	store := memory.NewStore()
	opts := DefaultOptions()
	opts.OpenSelfServiceRoles = false
	users := NewUserService(store.Users(), opts)

	u, err := users.EnsureUser(t.Context(), identity.Identity{SubjectID: "s", Email: "s@example.com"})
	require.NoError(t, err)

	_, err = users.SetRole(t.Context(), u.SubjectID, "organizer")
	assert.ErrorIs(t, err, common.ErrAuthorization)

	same, err := users.SetRole(t.Context(), u.SubjectID, "attendee")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAttendee, same.Role)
}
