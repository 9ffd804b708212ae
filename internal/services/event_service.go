package services

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/blob"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/metrics"
	"github.com/gravadigital/eventhub-api/internal/policy"
	"github.com/gravadigital/eventhub-api/internal/sanitize"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
	"github.com/gravadigital/eventhub-api/internal/validation"
)

// EventService handles event lifecycle and roster membership
type EventService struct {
	repos     repository.Container
	blobs     blob.Store
	opts      Options
	validator validation.EventValidation
	log       *log.Logger

	// generateCode is replaced in tests to force collisions
	generateCode func() (string, error)
}

// NewEventService creates a new event service
func NewEventService(repos repository.Container, blobs blob.Store, opts Options) *EventService {
	return &EventService{
		repos:        repos,
		blobs:        blobs,
		opts:         opts,
		log:          logger.Service("event"),
		generateCode: event.GenerateJoinCode,
	}
}

// EventInput carries the fields of a new event
type EventInput struct {
	Name        string
	Description string
	Location    string
	StartTime   time.Time
}

// CreateEvent creates an event owned by u with a fresh join code. A taken code
// is redrawn up to JoinCodeAttempts times.
func (s *EventService) CreateEvent(ctx context.Context, u *user.User, in EventInput) (*event.Event, error) {
	if !u.IsOrganizer() {
		return nil, common.NewAuthorization("only organizers can create events")
	}

	name := sanitize.Text(in.Name)
	description := sanitize.HTML(in.Description)
	location := sanitize.Text(in.Location)
	if err := s.validator.ValidateEventName(name); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateEventDescription(description); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateLocation(location); err != nil {
		return nil, err
	}
	if err := validation.ValidateStartTime(in.StartTime); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.opts.JoinCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate join code: %w", err)
		}

		e := event.NewEvent(name, description, location, in.StartTime, u.ID, code)
		if err := e.Validate(); err != nil {
			return nil, common.NewValidation(err.Error())
		}

		err = s.repos.Events().Create(ctx, e)
		if err == nil {
			metrics.EventsCreated.Inc()
			s.log.Info("Event created", "event_id", e.ID, "organizer_id", u.ID, "attempt", attempt)
			return e, nil
		}
		if !common.IsKind(err, common.KindConflict) {
			return nil, err
		}
		metrics.JoinCodeCollisions.Inc()
		s.log.Debug("Join code taken, retrying", "attempt", attempt)
	}

	s.log.Error("Exhausted join code attempts", "attempts", s.opts.JoinCodeAttempts)
	return nil, common.NewConflict("could not allocate a unique join code")
}

// GetEvent returns an event u may view
func (s *EventService) GetEvent(ctx context.Context, u *user.User, id uuid.UUID) (*event.Event, error) {
	e, err := loadEvent(ctx, s.repos.Events(), id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewEvent(u, e) {
		return nil, common.NewAuthorization("not a member of this event")
	}
	return e, nil
}

// UpdateEvent applies the provided fields. Only the organizer may edit.
func (s *EventService) UpdateEvent(ctx context.Context, u *user.User, id uuid.UUID, patch event.Patch) (*event.Event, error) {
	e, err := loadEvent(ctx, s.repos.Events(), id)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageEvent(u, e) {
		return nil, common.NewAuthorization("only the organizer can edit this event")
	}

	if patch.Name != nil {
		patch.Name = sanitize.TextPtr(patch.Name)
		if err := s.validator.ValidateEventName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		description := sanitize.HTML(*patch.Description)
		patch.Description = &description
		if err := s.validator.ValidateEventDescription(description); err != nil {
			return nil, err
		}
	}
	if patch.Location != nil {
		patch.Location = sanitize.TextPtr(patch.Location)
		if err := s.validator.ValidateLocation(*patch.Location); err != nil {
			return nil, err
		}
	}
	if patch.StartTime != nil {
		if err := validation.ValidateStartTime(*patch.StartTime); err != nil {
			return nil, err
		}
	}

	return s.repos.Events().Update(ctx, id, patch)
}

// DeleteEvent removes the event with its roster, circulars, chat and
// feedback, then drops the media they referenced.
func (s *EventService) DeleteEvent(ctx context.Context, u *user.User, id uuid.UUID) error {
	e, err := loadEvent(ctx, s.repos.Events(), id)
	if err != nil {
		return err
	}
	if !policy.CanManageEvent(u, e) {
		return common.NewAuthorization("only the organizer can delete this event")
	}

	keys := make([]string, 0)
	for _, c := range e.Circulars {
		keys = append(keys, c.AudioRef)
	}
	messages, err := s.repos.Chat().ListByEvent(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range messages {
		keys = append(keys, m.FileRef)
	}

	if err := s.repos.Events().Delete(ctx, id); err != nil {
		return err
	}
	metrics.EventsDeleted.Inc()
	s.log.Info("Event deleted", "event_id", id, "organizer_id", u.ID)

	deleteBlobs(ctx, s.blobs, s.log, keys...)
	return nil
}

// FindByJoinCode looks an event up by code, case-insensitively. The flag
// reports whether u is already on the roster.
func (s *EventService) FindByJoinCode(ctx context.Context, u *user.User, code string) (*event.Event, bool, error) {
	if err := validation.ValidateJoinCode(code); err != nil {
		return nil, false, err
	}
	e, err := s.repos.Events().GetByJoinCode(ctx, event.NormalizeJoinCode(code))
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			return nil, false, common.NewNotFound("no event with this join code")
		}
		return nil, false, err
	}
	return e, policy.IsAttendeeOf(u, e), nil
}

// JoinEvent adds u to the roster of the event with the given code. Joining
// twice is a conflict.
func (s *EventService) JoinEvent(ctx context.Context, u *user.User, code string) (*event.Event, error) {
	if !u.IsAttendee() {
		metrics.Joins.WithLabelValues("forbidden").Inc()
		return nil, common.NewAuthorization("only attendees can join events")
	}

	e, _, err := s.FindByJoinCode(ctx, u, code)
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			metrics.Joins.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	if _, err := s.repos.Events().AddAttendee(ctx, e.ID, u.ID); err != nil {
		if common.IsKind(err, common.KindConflict) {
			metrics.Joins.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}
	metrics.Joins.WithLabelValues("joined").Inc()
	s.log.Info("Attendee joined", "event_id", e.ID, "user_id", u.ID)

	return loadEvent(ctx, s.repos.Events(), e.ID)
}

// RemoveAttendee takes attendeeID off the roster. Only the organizer may.
func (s *EventService) RemoveAttendee(ctx context.Context, u *user.User, eventID, attendeeID uuid.UUID) error {
	e, err := loadEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return err
	}
	if !policy.CanManageEvent(u, e) {
		return common.NewAuthorization("only the organizer can manage attendees")
	}
	if err := s.repos.Events().RemoveAttendee(ctx, eventID, attendeeID); err != nil {
		return err
	}
	s.log.Info("Attendee removed", "event_id", eventID, "user_id", attendeeID)
	return nil
}

// ListAttendees returns the roster with names and emails, in join order
func (s *EventService) ListAttendees(ctx context.Context, u *user.User, eventID uuid.UUID) ([]event.AttendeeView, error) {
	e, err := loadEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageEvent(u, e) {
		return nil, common.NewAuthorization("only the organizer can view attendees")
	}

	users, err := s.repos.Users().GetByIDs(ctx, e.AttendeeIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*user.User, len(users))
	for _, a := range users {
		byID[a.ID] = a
	}

	views := make([]event.AttendeeView, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		view := event.AttendeeView{UserID: a.UserID, JoinedAt: a.JoinedAt}
		if attendee, ok := byID[a.UserID]; ok {
			view.Name = attendee.DisplayName
			view.Email = attendee.Email
		}
		views = append(views, view)
	}
	return views, nil
}

// ListForOrganizer returns the events u organizes, newest first
func (s *EventService) ListForOrganizer(ctx context.Context, u *user.User) ([]*event.Event, error) {
	if !u.IsOrganizer() {
		return nil, common.NewAuthorization("organizer role required")
	}
	return s.repos.Events().ListByOrganizer(ctx, u.ID)
}

// ListForAttendee returns the events u joined, soonest first
func (s *EventService) ListForAttendee(ctx context.Context, u *user.User) ([]*event.Event, error) {
	if !u.IsAttendee() {
		return nil, common.NewAuthorization("attendee role required")
	}
	return s.repos.Events().ListByAttendee(ctx, u.ID)
}
