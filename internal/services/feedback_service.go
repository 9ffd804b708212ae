package services

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/metrics"
	"github.com/gravadigital/eventhub-api/internal/policy"
	"github.com/gravadigital/eventhub-api/internal/sanitize"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
	"github.com/gravadigital/eventhub-api/internal/validation"
)

// FeedbackService collects star ratings from attendees
type FeedbackService struct {
	repos     repository.Container
	opts      Options
	validator validation.FeedbackValidation
	log       *log.Logger
}

func NewFeedbackService(repos repository.Container, opts Options) *FeedbackService {
	return &FeedbackService{
		repos: repos,
		opts:  opts,
		log:   logger.Service("feedback"),
	}
}

// FeedbackList is the member view of an event's feedback
type FeedbackList struct {
	Entries      []feedback.View `json:"feedback"`
	HasSubmitted bool            `json:"has_submitted"`
}

// Submit records u's rating. Each attendee rates an event once.
func (s *FeedbackService) Submit(ctx context.Context, u *user.User, eventID uuid.UUID, rating int, comment string) (*feedback.Feedback, error) {
	e, err := loadEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanSubmitFeedback(u, e) {
		return nil, common.NewAuthorization("only attendees of this event can leave feedback")
	}

	comment = sanitize.Text(comment)
	if err := s.validator.ValidateFeedback(rating, comment); err != nil {
		return nil, err
	}

	f := feedback.NewFeedback(e.ID, u.ID, rating, comment)
	if err := f.Validate(); err != nil {
		return nil, common.NewValidation(err.Error())
	}
	if err := s.repos.Feedback().Create(ctx, f); err != nil {
		return nil, err
	}
	metrics.FeedbackSubmitted.Inc()
	s.log.Info("Feedback submitted", "event_id", e.ID, "user_id", u.ID, "rating", rating)
	return f, nil
}

// List returns the event's feedback newest first. Members only.
func (s *FeedbackService) List(ctx context.Context, u *user.User, eventID uuid.UUID) (*FeedbackList, error) {
	e, err := loadEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewFeedback(u, e) {
		return nil, common.NewAuthorization("not a member of this event")
	}

	entries, err := s.repos.Feedback().ListByEvent(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, entries, nil)
	if err != nil {
		return nil, err
	}

	list := &FeedbackList{Entries: views}
	for _, f := range entries {
		if f.UserID == u.ID {
			list.HasSubmitted = true
			break
		}
	}
	return list, nil
}

// ListForOrganizer returns the feedback on every event u organizes, newest first
func (s *FeedbackService) ListForOrganizer(ctx context.Context, u *user.User) ([]feedback.View, error) {
	if !u.IsOrganizer() {
		return nil, common.NewAuthorization("organizer role required")
	}

	events, err := s.repos.Events().ListByOrganizer(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return []feedback.View{}, nil
	}

	ids := make([]uuid.UUID, 0, len(events))
	names := make(map[uuid.UUID]string, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
		names[e.ID] = e.Name
	}

	entries, err := s.repos.Feedback().ListByEvents(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, entries, names)
}

func (s *FeedbackService) views(ctx context.Context, entries []*feedback.Feedback, eventNames map[uuid.UUID]string) ([]feedback.View, error) {
	ids := make([]uuid.UUID, 0, len(entries))
	for _, f := range entries {
		ids = append(ids, f.UserID)
	}
	users, err := s.repos.Users().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}

	views := make([]feedback.View, 0, len(entries))
	for _, f := range entries {
		views = append(views, feedback.View{
			ID:          f.ID,
			EventID:     f.EventID,
			EventName:   eventNames[f.EventID],
			Rating:      f.Rating,
			Comment:     f.Comment,
			SubmittedAt: f.SubmittedAt,
			SubmittedBy: names[f.UserID],
		})
	}
	return views, nil
}
