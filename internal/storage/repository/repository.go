// Package repository declares the persistence contracts shared by every
// storage backend.
//
// Implementations return typed errors from the common package: a missing
// record is a not-found error, a unique-constraint hit is a conflict error,
// and any other driver failure is a storage (or timeout) error.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
)

// UserRepository persists users. SubjectID and Email are unique.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetBySubjectID(ctx context.Context, subjectID string) (*user.User, error)
	// GetByIDs returns the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error)
}

// EventRepository persists events together with their roster and circulars.
// Events returned by GetByID and GetByJoinCode carry both child lists sorted
// oldest first.
type EventRepository interface {
	// Create fails with a conflict error when the join code is taken.
	Create(ctx context.Context, e *event.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error)
	GetByJoinCode(ctx context.Context, code string) (*event.Event, error)
	// ListByOrganizer returns events newest first.
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*event.Event, error)
	// ListByAttendee returns the events userID is on the roster of, soonest first.
	ListByAttendee(ctx context.Context, userID uuid.UUID) ([]*event.Event, error)
	Update(ctx context.Context, id uuid.UUID, patch event.Patch) (*event.Event, error)
	// Delete removes the event and everything that hangs off it.
	Delete(ctx context.Context, id uuid.UUID) error
	// AddAttendee is a conditional insert; an existing entry is a conflict error.
	AddAttendee(ctx context.Context, eventID, userID uuid.UUID) (*event.Attendee, error)
	// RemoveAttendee fails with not found when the user is not on the roster.
	RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) error
	AppendCircular(ctx context.Context, c *event.Circular) error
}

// ChatRepository persists chat messages.
type ChatRepository interface {
	Create(ctx context.Context, m *chat.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*chat.Message, error)
	// ListByEvent returns messages oldest first.
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*chat.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FeedbackRepository persists feedback. (EventID, UserID) is unique.
type FeedbackRepository interface {
	// Create fails with a conflict error when the user already rated the event.
	Create(ctx context.Context, f *feedback.Feedback) error
	// ListByEvent returns entries newest first.
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*feedback.Feedback, error)
	// ListByEvents returns entries for any of eventIDs, newest first.
	ListByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]*feedback.Feedback, error)
}

// Container groups the repositories of one backend.
type Container interface {
	Users() UserRepository
	Events() EventRepository
	Chat() ChatRepository
	Feedback() FeedbackRepository
	Health(ctx context.Context) error
	Close(ctx context.Context) error
}
