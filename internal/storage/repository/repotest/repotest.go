// Package repotest runs the same behavioural checks against every storage backend.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
)

// Run exercises a backend. newContainer must return an empty container.
func Run(t *testing.T, newContainer func(t *testing.T) repository.Container) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newContainer(t)) })
	t.Run("EventLifecycle", func(t *testing.T) { testEventLifecycle(t, newContainer(t)) })
	t.Run("Roster", func(t *testing.T) { testRoster(t, newContainer(t)) })
	t.Run("ConcurrentJoin", func(t *testing.T) { testConcurrentJoin(t, newContainer(t)) })
	t.Run("Chat", func(t *testing.T) { testChat(t, newContainer(t)) })
	t.Run("Feedback", func(t *testing.T) { testFeedback(t, newContainer(t)) })
	t.Run("CascadeDelete", func(t *testing.T) { testCascadeDelete(t, newContainer(t)) })
}

var seq int

// NewUser creates and stores a user with a unique subject and email
func NewUser(t *testing.T, c repository.Container, name string, role user.Role) *user.User {
	t.Helper()
	seq++
	u := user.NewUser(user.Profile{
		SubjectID:   fmt.Sprintf("subject-%s-%d-%s", name, seq, uuid.NewString()[:8]),
		Email:       fmt.Sprintf("%s-%d-%s@example.com", name, seq, uuid.NewString()[:8]),
		DisplayName: name,
	})
	u.Role = role
	require.NoError(t, c.Users().Create(context.Background(), u))
	return u
}

// NewEvent creates and stores an event with a fresh join code
func NewEvent(t *testing.T, c repository.Container, organizer *user.User, name string, start time.Time) *event.Event {
	t.Helper()
	code, err := event.GenerateJoinCode()
	require.NoError(t, err)
	e := event.NewEvent(name, "description", "HQ", start, organizer.ID, code)
	require.NoError(t, c.Events().Create(context.Background(), e))
	return e
}

func testUsers(t *testing.T, c repository.Container) {
	ctx := context.Background()
	u := NewUser(t, c, "ada", user.RoleAttendee)

	got, err := c.Users().GetBySubjectID(ctx, u.SubjectID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, user.RoleAttendee, got.Role)

	dup := user.NewUser(user.Profile{SubjectID: u.SubjectID, Email: "other-" + u.Email, DisplayName: "dup"})
	assert.ErrorIs(t, c.Users().Create(ctx, dup), common.ErrConflict)

	updated, err := c.Users().UpdateRole(ctx, u.ID, user.RoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, user.RoleOrganizer, updated.Role)

	_, err = c.Users().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = c.Users().UpdateRole(ctx, uuid.New(), user.RoleOrganizer)
	assert.ErrorIs(t, err, common.ErrNotFound)

	other := NewUser(t, c, "bob", user.RoleAttendee)
	users, err := c.Users().GetByIDs(ctx, []uuid.UUID{u.ID, other.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func testEventLifecycle(t *testing.T, c repository.Container) {
	ctx := context.Background()
	org := NewUser(t, c, "org", user.RoleOrganizer)
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := NewEvent(t, c, org, "First", now.Add(48*time.Hour))
	time.Sleep(5 * time.Millisecond)
	second := NewEvent(t, c, org, "Second", now.Add(24*time.Hour))

	clash := event.NewEvent("Clash", "d", "HQ", now, org.ID, first.JoinCode)
	assert.ErrorIs(t, c.Events().Create(ctx, clash), common.ErrConflict)

	byCode, err := c.Events().GetByJoinCode(ctx, second.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, second.ID, byCode.ID)

	list, err := c.Events().ListByOrganizer(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	name := "Renamed"
	updated, err := c.Events().Update(ctx, first.ID, event.Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, first.Location, updated.Location)
	assert.Equal(t, first.JoinCode, updated.JoinCode)

	_, err = c.Events().Update(ctx, uuid.New(), event.Patch{Name: &name})
	assert.ErrorIs(t, err, common.ErrNotFound)

	circ := event.NewTextCircular(first.ID, "doors open at 9", org.DisplayName)
	require.NoError(t, c.Events().AppendCircular(ctx, circ))
	later := event.NewTextCircular(first.ID, "lunch at noon", org.DisplayName)
	later.SentAt = circ.SentAt.Add(time.Second)
	require.NoError(t, c.Events().AppendCircular(ctx, later))

	got, err := c.Events().GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Circulars, 2)
	assert.Equal(t, "doors open at 9", got.Circulars[0].Content)

	require.NoError(t, c.Events().Delete(ctx, first.ID))
	_, err = c.Events().GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, c.Events().Delete(ctx, first.ID), common.ErrNotFound)
}

func testRoster(t *testing.T, c repository.Container) {
	ctx := context.Background()
	org := NewUser(t, c, "org", user.RoleOrganizer)
	ada := NewUser(t, c, "ada", user.RoleAttendee)
	now := time.Now().UTC()

	late := NewEvent(t, c, org, "Late", now.Add(72*time.Hour))
	early := NewEvent(t, c, org, "Early", now.Add(24*time.Hour))

	_, err := c.Events().AddAttendee(ctx, late.ID, ada.ID)
	require.NoError(t, err)
	_, err = c.Events().AddAttendee(ctx, early.ID, ada.ID)
	require.NoError(t, err)

	_, err = c.Events().AddAttendee(ctx, early.ID, ada.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = c.Events().AddAttendee(ctx, uuid.New(), ada.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	mine, err := c.Events().ListByAttendee(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, early.ID, mine[0].ID, "soonest first")

	require.NoError(t, c.Events().RemoveAttendee(ctx, early.ID, ada.ID))
	assert.ErrorIs(t, c.Events().RemoveAttendee(ctx, early.ID, ada.ID), common.ErrNotFound)

	got, err := c.Events().GetByID(ctx, early.ID)
	require.NoError(t, err)
	assert.False(t, got.HasAttendee(ada.ID))

	// rejoin after removal is allowed
	_, err = c.Events().AddAttendee(ctx, early.ID, ada.ID)
	require.NoError(t, err)
}

func testConcurrentJoin(t *testing.T, c repository.Container) {
	ctx := context.Background()
	org := NewUser(t, c, "org", user.RoleOrganizer)
	ada := NewUser(t, c, "ada", user.RoleAttendee)
	e := NewEvent(t, c, org, "Launch", time.Now().Add(time.Hour))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Events().AddAttendee(ctx, e.ID, ada.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case common.IsKind(err, common.KindConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)

	got, err := c.Events().GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.Attendees, 1)
}

func testChat(t *testing.T, c repository.Container) {
	ctx := context.Background()
	org := NewUser(t, c, "org", user.RoleOrganizer)
	e := NewEvent(t, c, org, "Launch", time.Now().Add(time.Hour))

	first := chat.NewMessage(e.ID, org.ID, org.DisplayName, "hello", chat.KindText, nil)
	second := chat.NewMessage(e.ID, org.ID, org.DisplayName, "welcome", chat.KindAnnouncement, nil)
	second.SentAt = first.SentAt.Add(time.Second)
	require.NoError(t, c.Chat().Create(ctx, second))
	require.NoError(t, c.Chat().Create(ctx, first))

	list, err := c.Chat().ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hello", list[0].Content)

	got, err := c.Chat().GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.KindAnnouncement, got.Kind)

	require.NoError(t, c.Chat().Delete(ctx, first.ID))
	_, err = c.Chat().GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, c.Chat().Delete(ctx, first.ID), common.ErrNotFound)
}

func testFeedback(t *testing.T, c repository.Container) {
	ctx := context.Background()
	org := NewUser(t, c, "org", user.RoleOrganizer)
	ada := NewUser(t, c, "ada", user.RoleAttendee)
	bob := NewUser(t, c, "bob", user.RoleAttendee)
	e1 := NewEvent(t, c, org, "One", time.Now().Add(time.Hour))
	e2 := NewEvent(t, c, org, "Two", time.Now().Add(time.Hour))

	f1 := feedback.NewFeedback(e1.ID, ada.ID, 5, "great")
	require.NoError(t, c.Feedback().Create(ctx, f1))
	f2 := feedback.NewFeedback(e1.ID, bob.ID, 3, "ok")
	f2.SubmittedAt = f1.SubmittedAt.Add(time.Second)
	require.NoError(t, c.Feedback().Create(ctx, f2))
	f3 := feedback.NewFeedback(e2.ID, ada.ID, 4, "good")
	f3.SubmittedAt = f1.SubmittedAt.Add(2 * time.Second)
	require.NoError(t, c.Feedback().Create(ctx, f3))

	again := feedback.NewFeedback(e1.ID, ada.ID, 1, "changed my mind")
	assert.ErrorIs(t, c.Feedback().Create(ctx, again), common.ErrConflict)

	list, err := c.Feedback().ListByEvent(ctx, e1.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, bob.ID, list[0].UserID, "newest first")

	all, err := c.Feedback().ListByEvents(ctx, []uuid.UUID{e1.ID, e2.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, e2.ID, all[0].EventID)

	none, err := c.Feedback().ListByEvents(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testCascadeDelete(t *testing.T, c repository.Container) {
	ctx := context.Background()
	org := NewUser(t, c, "org", user.RoleOrganizer)
	ada := NewUser(t, c, "ada", user.RoleAttendee)
	e := NewEvent(t, c, org, "Launch", time.Now().Add(time.Hour))

	_, err := c.Events().AddAttendee(ctx, e.ID, ada.ID)
	require.NoError(t, err)
	require.NoError(t, c.Events().AppendCircular(ctx, event.NewTextCircular(e.ID, "hi", org.DisplayName)))
	msg := chat.NewMessage(e.ID, ada.ID, ada.DisplayName, "hello", chat.KindText, nil)
	require.NoError(t, c.Chat().Create(ctx, msg))
	require.NoError(t, c.Feedback().Create(ctx, feedback.NewFeedback(e.ID, ada.ID, 4, "nice")))

	require.NoError(t, c.Events().Delete(ctx, e.ID))

	_, err = c.Chat().GetByID(ctx, msg.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	fb, err := c.Feedback().ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, fb)
	mine, err := c.Events().ListByAttendee(ctx, ada.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
