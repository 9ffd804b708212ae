package event

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is an organizer's event together with its roster and circulars
type Event struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description" gorm:"not null"`
	StartTime   time.Time  `json:"start_time" gorm:"not null"`
	Location    string     `json:"location" gorm:"not null"`
	OrganizerID uuid.UUID  `json:"organizer_id" gorm:"type:uuid;not null;index"`
	JoinCode    string     `json:"join_code" gorm:"size:6;uniqueIndex;not null"`
	Attendees   []Attendee `json:"attendees" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Circulars   []Circular `json:"circulars" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Event) TableName() string {
	return "events"
}

// BeforeCreate sets a UUID before creating the record
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// NewEvent creates a new event owned by organizerID
func NewEvent(name, description, location string, startTime time.Time, organizerID uuid.UUID, joinCode string) *Event {
	now := time.Now().UTC()
	return &Event{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		StartTime:   startTime.UTC(),
		Location:    location,
		OrganizerID: organizerID,
		JoinCode:    NormalizeJoinCode(joinCode),
		Attendees:   make([]Attendee, 0),
		Circulars:   make([]Circular, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsOrganizer checks if the given user ID owns this event
func (e *Event) IsOrganizer(userID uuid.UUID) bool {
	return e.OrganizerID == userID
}

// HasAttendee checks if the given user ID is on the roster
func (e *Event) HasAttendee(userID uuid.UUID) bool {
	return slices.ContainsFunc(e.Attendees, func(a Attendee) bool {
		return a.UserID == userID
	})
}

// AttendeeIDs returns the roster user IDs in join order
func (e *Event) AttendeeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		ids = append(ids, a.UserID)
	}
	return ids
}

// SortChildren orders the roster by join time and circulars by send time
func (e *Event) SortChildren() {
	sort.SliceStable(e.Attendees, func(i, j int) bool {
		return e.Attendees[i].JoinedAt.Before(e.Attendees[j].JoinedAt)
	})
	sort.SliceStable(e.Circulars, func(i, j int) bool {
		return e.Circulars[i].SentAt.Before(e.Circulars[j].SentAt)
	})
}

// Validate checks if the event data is valid
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(e.Location) == "" {
		return fmt.Errorf("location is required")
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if e.OrganizerID == uuid.Nil {
		return fmt.Errorf("organizer_id is required")
	}
	if !ValidJoinCode(e.JoinCode) {
		return fmt.Errorf("join_code must be %d upper-case letters or digits", JoinCodeLength)
	}
	return nil
}

// Attendee is a roster entry. The pair (EventID, UserID) is unique.
type Attendee struct {
	EventID  uuid.UUID `json:"-" gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey;index"`
	JoinedAt time.Time `json:"joined_at" gorm:"not null"`
}

// TableName overrides the table name used by GORM
func (Attendee) TableName() string {
	return "event_attendees"
}

// AttendeeView is the organizer-facing roster row
type AttendeeView struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// Patch carries the optional fields of an event update
type Patch struct {
	Name        *string
	Description *string
	StartTime   *time.Time
	Location    *string
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.StartTime == nil && p.Location == nil
}

// Apply copies the provided fields onto e
func (p Patch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.StartTime != nil {
		e.StartTime = p.StartTime.UTC()
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
}

// Columns returns the column updates for the provided fields
func (p Patch) Columns() map[string]any {
	columns := make(map[string]any, 4)
	if p.Name != nil {
		columns["name"] = *p.Name
	}
	if p.Description != nil {
		columns["description"] = *p.Description
	}
	if p.StartTime != nil {
		columns["start_time"] = p.StartTime.UTC()
	}
	if p.Location != nil {
		columns["location"] = *p.Location
	}
	return columns
}
