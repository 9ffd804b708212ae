package postgres

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
	"github.com/gravadigital/eventhub-api/internal/logger"
)

// PostgresFeedbackRepository implements FeedbackRepository using GORM
type PostgresFeedbackRepository struct {
	db  *gorm.DB
	log *log.Logger
}

func NewPostgresFeedbackRepository(db *gorm.DB) *PostgresFeedbackRepository {
	return &PostgresFeedbackRepository{
		db:  db,
		log: logger.Repository("feedback"),
	}
}

// Create relies on the unique (event_id, user_id) index to reject a second submission
func (r *PostgresFeedbackRepository) Create(ctx context.Context, f *feedback.Feedback) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		mapped := translate(err, "feedback")
		switch common.KindOf(mapped) {
		case common.KindConflict:
			return common.NewConflict("feedback already submitted")
		case common.KindNotFound:
			return common.NewNotFound("event not found")
		}
		r.log.Error("Failed to create feedback", "event_id", f.EventID, "error", err)
		return mapped
	}
	r.log.Info("Feedback submitted", "event_id", f.EventID, "user_id", f.UserID, "rating", f.Rating)
	return nil
}

func (r *PostgresFeedbackRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*feedback.Feedback, error) {
	return r.ListByEvents(ctx, []uuid.UUID{eventID})
}

func (r *PostgresFeedbackRepository) ListByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]*feedback.Feedback, error) {
	entries := make([]*feedback.Feedback, 0)
	if len(eventIDs) == 0 {
		return entries, nil
	}
	err := r.db.WithContext(ctx).
		Where("event_id IN ?", eventIDs).
		Order("submitted_at DESC").
		Find(&entries).Error
	if err != nil {
		r.log.Error("Failed to list feedback", "events", len(eventIDs), "error", err)
		return nil, translate(err, "feedback")
	}
	return entries, nil
}
