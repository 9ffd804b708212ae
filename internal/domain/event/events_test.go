package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJoinCode(t *testing.T) {
	seen := make(map[string]struct{})
	for range 200 {
		code, err := GenerateJoinCode()
		require.NoError(t, err)
		assert.Len(t, code, JoinCodeLength)
		assert.True(t, ValidJoinCode(code), "generated code %q must be valid", code)
		seen[code] = struct{}{}
	}
	// 36^6 possibilities; 200 draws colliding more than a couple of times means the source is broken.
	assert.Greater(t, len(seen), 195)
}

func TestNormalizeAndValidateJoinCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeJoinCode("  ab12cd "))
	assert.True(t, ValidJoinCode("AB12CD"))
	assert.False(t, ValidJoinCode("ab12cd"))
	assert.False(t, ValidJoinCode("AB12C"))
	assert.False(t, ValidJoinCode("AB-2CD"))
}

func TestNewEventValidate(t *testing.T) {
	organizer := uuid.New()
	e := NewEvent("Launch", "Product launch", "HQ", time.Now().Add(time.Hour), organizer, "abc123")

	require.NoError(t, e.Validate())
	assert.Equal(t, "ABC123", e.JoinCode)
	assert.True(t, e.IsOrganizer(organizer))
	assert.Empty(t, e.Attendees)

	e.Location = " "
	assert.EqualError(t, e.Validate(), "location is required")
}

func TestRosterHelpers(t *testing.T) {
	e := NewEvent("Launch", "d", "HQ", time.Now(), uuid.New(), "ABC123")
	first, second := uuid.New(), uuid.New()
	now := time.Now()
	e.Attendees = []Attendee{
		{EventID: e.ID, UserID: second, JoinedAt: now.Add(time.Minute)},
		{EventID: e.ID, UserID: first, JoinedAt: now},
	}
	e.Circulars = []Circular{
		{Kind: CircularText, Content: "later", SentAt: now.Add(time.Hour)},
		{Kind: CircularText, Content: "earlier", SentAt: now},
	}

	e.SortChildren()

	assert.True(t, e.HasAttendee(first))
	assert.False(t, e.HasAttendee(uuid.New()))
	assert.Equal(t, []uuid.UUID{first, second}, e.AttendeeIDs())
	assert.Equal(t, "earlier", e.Circulars[0].Content)
}

func TestPatch(t *testing.T) {
	e := NewEvent("Launch", "d", "HQ", time.Now(), uuid.New(), "ABC123")
	assert.True(t, Patch{}.IsEmpty())

	name := "Relaunch"
	start := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Patch{Name: &name, StartTime: &start}
	p.Apply(e)

	assert.False(t, p.IsEmpty())
	assert.Equal(t, "Relaunch", e.Name)
	assert.Equal(t, "HQ", e.Location)
	assert.Equal(t, start, e.StartTime)
	assert.Equal(t, map[string]any{"name": "Relaunch", "start_time": start}, p.Columns())
}

func TestCircularValidate(t *testing.T) {
	id := uuid.New()
	assert.NoError(t, NewTextCircular(id, "Doors open at 9", "Olga").Validate())
	assert.Error(t, NewTextCircular(id, "", "Olga").Validate())
	assert.NoError(t, NewVoiceCircular(id, "circulars/x/y.webm", "Olga").Validate())
	assert.Error(t, NewVoiceCircular(id, "", "Olga").Validate())

	kind, ok := CircularKindFromString("voice")
	assert.True(t, ok)
	assert.Equal(t, CircularVoice, kind)
	_, ok = CircularKindFromString("video")
	assert.False(t, ok)
}
