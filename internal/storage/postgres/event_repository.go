package postgres

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
	"github.com/gravadigital/eventhub-api/internal/logger"
)

// PostgresEventRepository implements EventRepository using GORM
type PostgresEventRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresEventRepository creates a new PostgreSQL event repository
func NewPostgresEventRepository(db *gorm.DB) *PostgresEventRepository {
	return &PostgresEventRepository{
		db:  db,
		log: logger.Repository("event"),
	}
}

// withChildren preloads the roster and circulars in display order
func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Attendees", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Circulars", func(db *gorm.DB) *gorm.DB {
			return db.Order("sent_at ASC")
		})
}

func (r *PostgresEventRepository) Create(ctx context.Context, e *event.Event) error {
	r.log.Debug("Creating event", "name", e.Name, "organizer_id", e.OrganizerID)

	// children are written through their own operations
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(e).Error; err != nil {
		if common.IsKind(translate(err, "event"), common.KindConflict) {
			r.log.Debug("Join code collision", "join_code", e.JoinCode)
			return common.NewConflict("join code already in use")
		}
		r.log.Error("Failed to create event", "error", err)
		return translate(err, "event")
	}

	r.log.Info("Event created successfully", "id", e.ID, "join_code", e.JoinCode)
	return nil
}

func (r *PostgresEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	var e event.Event
	if err := withChildren(r.db.WithContext(ctx)).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err, "event")
	}
	return &e, nil
}

func (r *PostgresEventRepository) GetByJoinCode(ctx context.Context, code string) (*event.Event, error) {
	var e event.Event
	if err := withChildren(r.db.WithContext(ctx)).Where("join_code = ?", code).First(&e).Error; err != nil {
		return nil, translate(err, "event")
	}
	return &e, nil
}

func (r *PostgresEventRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*event.Event, error) {
	events := make([]*event.Event, 0)
	err := withChildren(r.db.WithContext(ctx)).
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		r.log.Error("Failed to list organizer events", "organizer_id", organizerID, "error", err)
		return nil, translate(err, "event")
	}
	return events, nil
}

func (r *PostgresEventRepository) ListByAttendee(ctx context.Context, userID uuid.UUID) ([]*event.Event, error) {
	events := make([]*event.Event, 0)
	err := withChildren(r.db.WithContext(ctx)).
		Joins("JOIN event_attendees ea ON ea.event_id = events.id").
		Where("ea.user_id = ?", userID).
		Order("events.start_time ASC").
		Find(&events).Error
	if err != nil {
		r.log.Error("Failed to list attendee events", "user_id", userID, "error", err)
		return nil, translate(err, "event")
	}
	return events, nil
}

func (r *PostgresEventRepository) Update(ctx context.Context, id uuid.UUID, patch event.Patch) (*event.Event, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	result := r.db.WithContext(ctx).Model(&event.Event{}).Where("id = ?", id).Updates(patch.Columns())
	if result.Error != nil {
		r.log.Error("Failed to update event", "id", id, "error", result.Error)
		return nil, translate(result.Error, "event")
	}
	if result.RowsAffected == 0 {
		return nil, common.NewNotFound("event not found")
	}

	r.log.Info("Event updated", "id", id)
	return r.GetByID(ctx, id)
}

// Delete removes the event and its dependents in one transaction. The foreign
// keys cascade as well; the explicit deletes keep the behaviour independent of
// the constraints being present.
func (r *PostgresEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&chat.Message{}, &feedback.Feedback{}, &event.Circular{}, &event.Attendee{}} {
			if err := tx.Where("event_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&event.Event{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.NewNotFound("event not found")
		}
		return nil
	})
	if err != nil {
		if !common.IsKind(err, common.KindNotFound) {
			r.log.Error("Failed to delete event", "id", id, "error", err)
		}
		return translate(err, "event")
	}

	r.log.Info("Event deleted", "id", id)
	return nil
}

// AddAttendee inserts the roster row unless it already exists. The primary key
// on (event_id, user_id) decides the race between concurrent joins.
func (r *PostgresEventRepository) AddAttendee(ctx context.Context, eventID, userID uuid.UUID) (*event.Attendee, error) {
	a := &event.Attendee{EventID: eventID, UserID: userID, JoinedAt: r.db.NowFunc()}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if result.Error != nil {
		r.log.Error("Failed to add attendee", "event_id", eventID, "user_id", userID, "error", result.Error)
		if common.IsKind(translate(result.Error, "attendee"), common.KindNotFound) {
			return nil, common.NewNotFound("event not found")
		}
		return nil, translate(result.Error, "attendee")
	}
	if result.RowsAffected == 0 {
		return nil, common.NewConflict("already joined this event")
	}

	r.log.Info("Attendee added", "event_id", eventID, "user_id", userID)
	return a, nil
}

func (r *PostgresEventRepository) RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&event.Attendee{})
	if result.Error != nil {
		r.log.Error("Failed to remove attendee", "event_id", eventID, "user_id", userID, "error", result.Error)
		return translate(result.Error, "attendee")
	}
	if result.RowsAffected == 0 {
		return common.NewNotFound("attendee not found")
	}

	r.log.Info("Attendee removed", "event_id", eventID, "user_id", userID)
	return nil
}

func (r *PostgresEventRepository) AppendCircular(ctx context.Context, c *event.Circular) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		r.log.Error("Failed to append circular", "event_id", c.EventID, "error", err)
		if common.IsKind(translate(err, "circular"), common.KindNotFound) {
			return common.NewNotFound("event not found")
		}
		return translate(err, "circular")
	}
	r.log.Debug("Circular appended", "event_id", c.EventID, "kind", c.Kind)
	return nil
}
