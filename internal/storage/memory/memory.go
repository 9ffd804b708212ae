// Package memory is an in-process storage backend. Every repository of a
// Store shares one lock, so multi-record writes such as cascade deletes are
// atomic. Records are copied on the way in and out.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
)

// Store holds all records of the memory backend
type Store struct {
	mu sync.RWMutex

	users     map[uuid.UUID]*user.User
	events    map[uuid.UUID]*event.Event
	messages  map[uuid.UUID]*chat.Message
	feedbacks map[uuid.UUID]*feedback.Feedback

	log *log.Logger
}

var _ repository.Container = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:     make(map[uuid.UUID]*user.User),
		events:    make(map[uuid.UUID]*event.Event),
		messages:  make(map[uuid.UUID]*chat.Message),
		feedbacks: make(map[uuid.UUID]*feedback.Feedback),
		log:       logger.Repository("memory"),
	}
}

func (s *Store) Users() repository.UserRepository {
	return userRepo{s}
}

func (s *Store) Events() repository.EventRepository {
	return eventRepo{s}
}

func (s *Store) Chat() repository.ChatRepository {
	return chatRepo{s}
}

func (s *Store) Feedback() repository.FeedbackRepository {
	return feedbackRepo{s}
}

func (s *Store) Health(ctx context.Context) error {
	return ctxErr(ctx)
}

func (s *Store) Close(context.Context) error {
	return nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return common.WrapStorage("request cancelled", err)
	}
	return nil
}

func cloneEvent(e *event.Event) *event.Event {
	c := *e
	c.Attendees = append(make([]event.Attendee, 0, len(e.Attendees)), e.Attendees...)
	c.Circulars = append(make([]event.Circular, 0, len(e.Circulars)), e.Circulars...)
	return &c
}

// users

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u *user.User) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.SubjectID == u.SubjectID {
			return common.NewConflict("user already exists")
		}
		if existing.Email == u.Email {
			return common.NewConflict("email already registered")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	stored := *u
	r.s.users[u.ID] = &stored
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.NewNotFound("user not found")
	}
	c := *u
	return &c, nil
}

func (r userRepo) GetBySubjectID(ctx context.Context, subjectID string) (*user.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.SubjectID == subjectID {
			c := *u
			return &c, nil
		}
	}
	return nil, common.NewNotFound("user not found")
}

func (r userRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r userRepo) UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.NewNotFound("user not found")
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	c := *u
	return &c, nil
}

// events

type eventRepo struct{ s *Store }

func (r eventRepo) Create(ctx context.Context, e *event.Event) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.events {
		if existing.JoinCode == e.JoinCode {
			return common.NewConflict("join code already in use")
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.s.events[e.ID] = cloneEvent(e)
	r.s.log.Debug("Event created", "id", e.ID, "join_code", e.JoinCode)
	return nil
}

func (r eventRepo) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, common.NewNotFound("event not found")
	}
	c := cloneEvent(e)
	c.SortChildren()
	return c, nil
}

func (r eventRepo) GetByJoinCode(ctx context.Context, code string) (*event.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.events {
		if e.JoinCode == code {
			c := cloneEvent(e)
			c.SortChildren()
			return c, nil
		}
	}
	return nil, common.NewNotFound("event not found")
}

func (r eventRepo) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*event.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*event.Event, 0)
	for _, e := range r.s.events {
		if e.OrganizerID == organizerID {
			c := cloneEvent(e)
			c.SortChildren()
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r eventRepo) ListByAttendee(ctx context.Context, userID uuid.UUID) ([]*event.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*event.Event, 0)
	for _, e := range r.s.events {
		if e.HasAttendee(userID) {
			c := cloneEvent(e)
			c.SortChildren()
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (r eventRepo) Update(ctx context.Context, id uuid.UUID, patch event.Patch) (*event.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, common.NewNotFound("event not found")
	}
	patch.Apply(e)
	e.UpdatedAt = time.Now().UTC()
	c := cloneEvent(e)
	c.SortChildren()
	return c, nil
}

func (r eventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return common.NewNotFound("event not found")
	}
	delete(r.s.events, id)
	for mid, m := range r.s.messages {
		if m.EventID == id {
			delete(r.s.messages, mid)
		}
	}
	for fid, f := range r.s.feedbacks {
		if f.EventID == id {
			delete(r.s.feedbacks, fid)
		}
	}
	r.s.log.Debug("Event deleted", "id", id)
	return nil
}

func (r eventRepo) AddAttendee(ctx context.Context, eventID, userID uuid.UUID) (*event.Attendee, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[eventID]
	if !ok {
		return nil, common.NewNotFound("event not found")
	}
	if e.HasAttendee(userID) {
		return nil, common.NewConflict("already joined this event")
	}
	a := event.Attendee{EventID: eventID, UserID: userID, JoinedAt: time.Now().UTC()}
	e.Attendees = append(e.Attendees, a)
	return &a, nil
}

func (r eventRepo) RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[eventID]
	if !ok {
		return common.NewNotFound("event not found")
	}
	for i, a := range e.Attendees {
		if a.UserID == userID {
			e.Attendees = append(e.Attendees[:i:i], e.Attendees[i+1:]...)
			return nil
		}
	}
	return common.NewNotFound("attendee not found")
}

func (r eventRepo) AppendCircular(ctx context.Context, c *event.Circular) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[c.EventID]
	if !ok {
		return common.NewNotFound("event not found")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	e.Circulars = append(e.Circulars, *c)
	return nil
}

// chat

type chatRepo struct{ s *Store }

func (r chatRepo) Create(ctx context.Context, m *chat.Message) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[m.EventID]; !ok {
		return common.NewNotFound("event not found")
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	c := *m
	r.s.messages[m.ID] = &c
	return nil
}

func (r chatRepo) GetByID(ctx context.Context, id uuid.UUID) (*chat.Message, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return nil, common.NewNotFound("message not found")
	}
	c := *m
	return &c, nil
}

func (r chatRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*chat.Message, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*chat.Message, 0)
	for _, m := range r.s.messages {
		if m.EventID == eventID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt.Before(out[j].SentAt)
	})
	return out, nil
}

func (r chatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.messages[id]; !ok {
		return common.NewNotFound("message not found")
	}
	delete(r.s.messages, id)
	return nil
}

// feedback

type feedbackRepo struct{ s *Store }

func (r feedbackRepo) Create(ctx context.Context, f *feedback.Feedback) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[f.EventID]; !ok {
		return common.NewNotFound("event not found")
	}
	for _, existing := range r.s.feedbacks {
		if existing.EventID == f.EventID && existing.UserID == f.UserID {
			return common.NewConflict("feedback already submitted")
		}
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	c := *f
	r.s.feedbacks[f.ID] = &c
	return nil
}

func (r feedbackRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*feedback.Feedback, error) {
	return r.ListByEvents(ctx, []uuid.UUID{eventID})
}

func (r feedbackRepo) ListByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]*feedback.Feedback, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	wanted := make(map[uuid.UUID]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		wanted[id] = struct{}{}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*feedback.Feedback, 0)
	for _, f := range r.s.feedbacks {
		if _, ok := wanted[f.EventID]; ok {
			c := *f
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}
