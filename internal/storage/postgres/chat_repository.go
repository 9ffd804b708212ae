package postgres

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/logger"
)

// PostgresChatRepository implements ChatRepository using GORM
type PostgresChatRepository struct {
	db  *gorm.DB
	log *log.Logger
}

func NewPostgresChatRepository(db *gorm.DB) *PostgresChatRepository {
	return &PostgresChatRepository{
		db:  db,
		log: logger.Repository("chat"),
	}
}

func (r *PostgresChatRepository) Create(ctx context.Context, m *chat.Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		r.log.Error("Failed to create chat message", "event_id", m.EventID, "error", err)
		if common.IsKind(translate(err, "message"), common.KindNotFound) {
			return common.NewNotFound("event not found")
		}
		return translate(err, "message")
	}
	r.log.Debug("Chat message created", "id", m.ID, "event_id", m.EventID, "kind", m.Kind)
	return nil
}

func (r *PostgresChatRepository) GetByID(ctx context.Context, id uuid.UUID) (*chat.Message, error) {
	var m chat.Message
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err, "message")
	}
	return &m, nil
}

func (r *PostgresChatRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*chat.Message, error) {
	messages := make([]*chat.Message, 0)
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("sent_at ASC").Find(&messages).Error; err != nil {
		r.log.Error("Failed to list chat messages", "event_id", eventID, "error", err)
		return nil, translate(err, "message")
	}
	return messages, nil
}

func (r *PostgresChatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&chat.Message{})
	if result.Error != nil {
		r.log.Error("Failed to delete chat message", "id", id, "error", result.Error)
		return translate(result.Error, "message")
	}
	if result.RowsAffected == 0 {
		return common.NewNotFound("message not found")
	}
	return nil
}
