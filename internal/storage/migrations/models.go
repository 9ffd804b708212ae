package migrations

import (
	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
)

// AllModels returns the models managed by AutoMigrate, parents before children
func AllModels() []any {
	return []any{
		&user.User{},
		&event.Event{},
		&event.Attendee{},
		&event.Circular{},
		&chat.Message{},
		&feedback.Feedback{},
	}
}

// Tables lists the managed tables, children before parents
func Tables() []string {
	return []string{
		"feedbacks",
		"chat_messages",
		"event_circulars",
		"event_attendees",
		"events",
		"users",
	}
}
