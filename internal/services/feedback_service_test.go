package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
)

func TestSubmitFeedbackRules(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	bob := f.user(t, "bob", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")
	f.join(t, ada, e)

	_, err := f.svc.Feedback.Submit(f.ctx, organizer, e.ID, 5, "mine")
	assert.ErrorIs(t, err, common.ErrAuthorization)
	_, err = f.svc.Feedback.Submit(f.ctx, bob, e.ID, 5, "never joined")
	assert.ErrorIs(t, err, common.ErrAuthorization)
	_, err = f.svc.Feedback.Submit(f.ctx, ada, e.ID, 6, "too much")
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = f.svc.Feedback.Submit(f.ctx, ada, e.ID, 3, "<p></p>")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestListFeedback(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	bob := f.user(t, "bob", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")
	f.join(t, ada, e)
	f.join(t, bob, e)

	_, err := f.svc.Feedback.Submit(f.ctx, ada, e.ID, 5, "Great")
	require.NoError(t, err)

	list, err := f.svc.Feedback.List(f.ctx, ada, e.ID)
	require.NoError(t, err)
	assert.True(t, list.HasSubmitted)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "ada", list.Entries[0].SubmittedBy)

	list, err = f.svc.Feedback.List(f.ctx, bob, e.ID)
	require.NoError(t, err)
	assert.False(t, list.HasSubmitted)

	list, err = f.svc.Feedback.List(f.ctx, organizer, e.ID)
	require.NoError(t, err)
	assert.Len(t, list.Entries, 1)

	outsider := f.user(t, "carol", user.RoleAttendee)
	_, err = f.svc.Feedback.List(f.ctx, outsider, e.ID)
	assert.ErrorIs(t, err, common.ErrAuthorization)
}

func TestListFeedbackForOrganizer(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	other := f.user(t, "oscar", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	launch := f.event(t, organizer, "Launch")
	party := f.event(t, organizer, "Party")
	foreign := f.event(t, other, "Elsewhere")
	for _, code := range []string{launch.JoinCode, party.JoinCode, foreign.JoinCode} {
		_, err := f.svc.Events.JoinEvent(f.ctx, ada, code)
		require.NoError(t, err)
	}
	_, err := f.svc.Feedback.Submit(f.ctx, ada, launch.ID, 5, "Great")
	require.NoError(t, err)
	_, err = f.svc.Feedback.Submit(f.ctx, ada, party.ID, 3, "Okay")
	require.NoError(t, err)
	_, err = f.svc.Feedback.Submit(f.ctx, ada, foreign.ID, 1, "Meh")
	require.NoError(t, err)

	views, err := f.svc.Feedback.ListForOrganizer(f.ctx, organizer)
	require.NoError(t, err)
	require.Len(t, views, 2)
	names := []string{views[0].EventName, views[1].EventName}
	assert.ElementsMatch(t, []string{"Launch", "Party"}, names)

	_, err = f.svc.Feedback.ListForOrganizer(f.ctx, ada)
	assert.ErrorIs(t, err, common.ErrAuthorization)

	empty, err := f.svc.Feedback.ListForOrganizer(f.ctx, f.user(t, "nina", user.RoleOrganizer))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
