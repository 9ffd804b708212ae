package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
)

func TestLaunchScenario(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	bob := f.user(t, "bob", user.RoleAttendee)

	start := time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC)
	e, err := f.svc.Events.CreateEvent(f.ctx, organizer, EventInput{Name: "Launch", Description: "Product launch", Location: "HQ", StartTime: start})
	require.NoError(t, err)
	assert.Len(t, e.JoinCode, event.JoinCodeLength)
	assert.True(t, event.ValidJoinCode(e.JoinCode))

	joined, err := f.svc.Events.JoinEvent(f.ctx, ada, e.JoinCode)
	require.NoError(t, err)
	require.Len(t, joined.Attendees, 1)
	assert.Equal(t, ada.ID, joined.Attendees[0].UserID)

	_, err = f.svc.Feedback.Submit(f.ctx, ada, e.ID, 5, "Great")
	require.NoError(t, err)
	_, err = f.svc.Feedback.Submit(f.ctx, ada, e.ID, 4, "Again")
	assert.ErrorIs(t, err, common.ErrConflict)

	roster, err := f.svc.Events.ListAttendees(f.ctx, organizer, e.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "ada", roster[0].Name)
	assert.Equal(t, "ada@example.com", roster[0].Email)
	assert.Equal(t, joined.Attendees[0].JoinedAt, roster[0].JoinedAt)

	_, _, err = f.svc.Chat.List(f.ctx, bob, e.ID)
	assert.ErrorIs(t, err, common.ErrAuthorization)
}

func TestCreateEventRequiresOrganizer(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada", user.RoleAttendee)

	_, err := f.svc.Events.CreateEvent(f.ctx, ada, EventInput{Name: "x", Description: "y", Location: "z", StartTime: time.Now()})
	assert.ErrorIs(t, err, common.ErrAuthorization)
}

func TestCreateEventValidates(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)

	tests := map[string]EventInput{
		"blank name":     {Name: "  ", Description: "d", Location: "l", StartTime: time.Now()},
		"script name":    {Name: "<script>x</script>", Description: "d", Location: "l", StartTime: time.Now()},
		"no location":    {Name: "n", Description: "d", StartTime: time.Now()},
		"no description": {Name: "n", Location: "l", StartTime: time.Now()},
		"no start":       {Name: "n", Description: "d", Location: "l"},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Events.CreateEvent(f.ctx, organizer, in)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestCreateEventRetriesJoinCodeCollisions(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	first := f.event(t, organizer, "First")

	codes := []string{first.JoinCode, first.JoinCode, "ZZZZZ9"}
	f.svc.Events.generateCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	second := f.event(t, organizer, "Second")
	assert.Equal(t, "ZZZZZ9", second.JoinCode)
}

func TestCreateEventGivesUpAfterAttempts(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	first := f.event(t, organizer, "First")

	calls := 0
	f.svc.Events.generateCode = func() (string, error) {
		calls++
		return first.JoinCode, nil
	}

	_, err := f.svc.Events.CreateEvent(f.ctx, organizer, EventInput{Name: "n", Description: "d", Location: "l", StartTime: time.Now()})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, DefaultOptions().JoinCodeAttempts, calls)
}

func TestCreateEventGeneratorFailure(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	f.svc.Events.generateCode = func() (string, error) {
		return "", errors.New("entropy exhausted")
	}

	_, err := f.svc.Events.CreateEvent(f.ctx, organizer, EventInput{Name: "n", Description: "d", Location: "l", StartTime: time.Now()})
	require.Error(t, err)
	assert.Equal(t, common.KindInternal, common.KindOf(err))
}

func TestGetEventVisibility(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	other := f.user(t, "oscar", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	bob := f.user(t, "bob", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")
	f.join(t, ada, e)

	for _, u := range []*user.User{organizer, other, ada} {
		_, err := f.svc.Events.GetEvent(f.ctx, u, e.ID)
		assert.NoError(t, err, u.DisplayName)
	}
	_, err := f.svc.Events.GetEvent(f.ctx, bob, e.ID)
	assert.ErrorIs(t, err, common.ErrAuthorization)

	_, err = f.svc.Events.GetEvent(f.ctx, organizer, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateEvent(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")
	f.join(t, ada, e)

	name := "  Launch v2 "
	updated, err := f.svc.Events.UpdateEvent(f.ctx, organizer, e.ID, event.Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", updated.Name)
	assert.Equal(t, "HQ", updated.Location)

	_, err = f.svc.Events.UpdateEvent(f.ctx, ada, e.ID, event.Patch{Name: &name})
	assert.ErrorIs(t, err, common.ErrAuthorization)

	blank := ""
	_, err = f.svc.Events.UpdateEvent(f.ctx, organizer, e.ID, event.Patch{Location: &blank})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeleteEventCascadesAndDropsMedia(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")
	f.join(t, ada, e)

	_, err := f.svc.Circulars.Append(f.ctx, organizer, e.ID, CircularInput{Audio: audioUpload("hello")})
	require.NoError(t, err)
	_, err = f.svc.Feedback.Submit(f.ctx, ada, e.ID, 4, "Nice")
	require.NoError(t, err)
	_, err = f.svc.Chat.Send(f.ctx, ada, e.ID, MessageInput{Content: "hi"})
	require.NoError(t, err)
	require.Equal(t, 1, f.blobs.Len())

	assert.ErrorIs(t, f.svc.Events.DeleteEvent(f.ctx, ada, e.ID), common.ErrAuthorization)
	require.NoError(t, f.svc.Events.DeleteEvent(f.ctx, organizer, e.ID))

	assert.Equal(t, 0, f.blobs.Len())
	messages, err := f.store.Chat().ListByEvent(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
	entries, err := f.store.Feedback().ListByEvent(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, f.svc.Events.DeleteEvent(f.ctx, organizer, e.ID), common.ErrNotFound)
}

func TestFindByJoinCode(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")

	found, already, err := f.svc.Events.FindByJoinCode(f.ctx, ada, " "+strings.ToLower(e.JoinCode)+" ")
	require.NoError(t, err)
	assert.Equal(t, e.ID, found.ID)
	assert.False(t, already)

	f.join(t, ada, e)
	_, already, err = f.svc.Events.FindByJoinCode(f.ctx, ada, e.JoinCode)
	require.NoError(t, err)
	assert.True(t, already)

	_, _, err = f.svc.Events.FindByJoinCode(f.ctx, ada, "bad")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestJoinEventRules(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")

	_, err := f.svc.Events.JoinEvent(f.ctx, organizer, e.JoinCode)
	assert.ErrorIs(t, err, common.ErrAuthorization)

	f.join(t, ada, e)
	_, err = f.svc.Events.JoinEvent(f.ctx, ada, strings.ToLower(e.JoinCode))
	assert.ErrorIs(t, err, common.ErrConflict)

	code := "QQQQQ1"
	if e.JoinCode == code {
		code = "QQQQQ2"
	}
	_, err = f.svc.Events.JoinEvent(f.ctx, ada, code)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRemoveAttendee(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	bob := f.user(t, "bob", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")
	f.join(t, ada, e)
	f.join(t, bob, e)

	assert.ErrorIs(t, f.svc.Events.RemoveAttendee(f.ctx, bob, e.ID, ada.ID), common.ErrAuthorization)
	require.NoError(t, f.svc.Events.RemoveAttendee(f.ctx, organizer, e.ID, ada.ID))
	assert.ErrorIs(t, f.svc.Events.RemoveAttendee(f.ctx, organizer, e.ID, ada.ID), common.ErrNotFound)

	roster, err := f.svc.Events.ListAttendees(f.ctx, organizer, e.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, bob.ID, roster[0].UserID)

	// removed attendees lose access
	_, err = f.svc.Circulars.List(f.ctx, ada, e.ID)
	assert.ErrorIs(t, err, common.ErrAuthorization)
}

func TestListForRoles(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)

	later, err := f.svc.Events.CreateEvent(f.ctx, organizer, EventInput{Name: "Later", Description: "d", Location: "l", StartTime: time.Now().Add(48 * time.Hour)})
	require.NoError(t, err)
	sooner, err := f.svc.Events.CreateEvent(f.ctx, organizer, EventInput{Name: "Sooner", Description: "d", Location: "l", StartTime: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	f.join(t, ada, later)
	f.join(t, ada, sooner)

	organized, err := f.svc.Events.ListForOrganizer(f.ctx, organizer)
	require.NoError(t, err)
	require.Len(t, organized, 2)

	attending, err := f.svc.Events.ListForAttendee(f.ctx, ada)
	require.NoError(t, err)
	require.Len(t, attending, 2)
	assert.Equal(t, sooner.ID, attending[0].ID)

	_, err = f.svc.Events.ListForOrganizer(f.ctx, ada)
	assert.ErrorIs(t, err, common.ErrAuthorization)
	_, err = f.svc.Events.ListForAttendee(f.ctx, organizer)
	assert.ErrorIs(t, err, common.ErrAuthorization)
}
