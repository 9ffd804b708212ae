package services

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
)

func audioUpload(body string) *Upload {
	return &Upload{
		Filename:    "note.m4a",
		ContentType: "audio/mp4",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestAppendTextCircular(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	ada := f.user(t, "ada", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")
	f.join(t, ada, e)

	c, err := f.svc.Circulars.Append(f.ctx, organizer, e.ID, CircularInput{Content: "Doors open at 6"})
	require.NoError(t, err)
	assert.Equal(t, event.CircularText, c.Kind)
	assert.Equal(t, "olivia", c.SentByName)

	_, err = f.svc.Circulars.Append(f.ctx, ada, e.ID, CircularInput{Content: "hijack"})
	assert.ErrorIs(t, err, common.ErrAuthorization)

	_, err = f.svc.Circulars.Append(f.ctx, organizer, e.ID, CircularInput{Kind: "text"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.Circulars.Append(f.ctx, organizer, e.ID, CircularInput{Kind: "video", Content: "x"})
	assert.ErrorIs(t, err, common.ErrValidation)

	list, err := f.svc.Circulars.List(f.ctx, ada, e.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Doors open at 6", list[0].Content)
}

func TestAppendVoiceCircular(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	e := f.event(t, organizer, "Launch")

	c, err := f.svc.Circulars.Append(f.ctx, organizer, e.ID, CircularInput{Kind: "voice", Audio: audioUpload("RIFF")})
	require.NoError(t, err)
	assert.Equal(t, event.CircularVoice, c.Kind)
	assert.True(t, strings.HasPrefix(c.AudioRef, "circulars/"+e.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(c.AudioRef, ".m4a"))

	r, obj, err := f.blobs.Get(f.ctx, c.AudioRef)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
	assert.Equal(t, "audio/mp4", obj.ContentType)
}

func TestAppendVoiceCircularRejects(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	e := f.event(t, organizer, "Launch")

	notAudio := audioUpload("x")
	notAudio.ContentType = "image/png"

	tooBig := audioUpload(strings.Repeat("x", 16))
	tooBig.Size = DefaultOptions().MaxAudioSize + 1

	for name, in := range map[string]CircularInput{
		"missing audio": {Kind: "voice"},
		"not audio":     {Audio: notAudio},
		"too large":     {Audio: tooBig},
		"html body":     {Audio: audioUpload("<html><script>alert(1)</script></html>")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Circulars.Append(f.ctx, organizer, e.ID, in)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
	assert.Equal(t, 0, f.blobs.Len())
}

func TestListCircularsAuthorization(t *testing.T) {
	f := newFixture(t)
	organizer := f.user(t, "olivia", user.RoleOrganizer)
	other := f.user(t, "oscar", user.RoleOrganizer)
	bob := f.user(t, "bob", user.RoleAttendee)
	e := f.event(t, organizer, "Launch")

	_, err := f.svc.Circulars.List(f.ctx, organizer, e.ID)
	assert.NoError(t, err)
	_, err = f.svc.Circulars.List(f.ctx, bob, e.ID)
	assert.ErrorIs(t, err, common.ErrAuthorization)
	// previewing organizers see the event but not its circulars
	_, err = f.svc.Circulars.List(f.ctx, other, e.ID)
	assert.ErrorIs(t, err, common.ErrAuthorization)
}
