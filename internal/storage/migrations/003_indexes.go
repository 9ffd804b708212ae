package migrations

import "gorm.io/gorm"

var indexes = map[string]string{
	"idx_events_organizer_created":  "CREATE INDEX IF NOT EXISTS idx_events_organizer_created ON events(organizer_id, created_at DESC)",
	"idx_events_start_time":         "CREATE INDEX IF NOT EXISTS idx_events_start_time ON events(start_time)",
	"idx_event_attendees_joined":    "CREATE INDEX IF NOT EXISTS idx_event_attendees_joined ON event_attendees(event_id, joined_at)",
	"idx_feedbacks_event_submitted": "CREATE INDEX IF NOT EXISTS idx_feedbacks_event_submitted ON feedbacks(event_id, submitted_at DESC)",
	"idx_users_role":                "CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)",
}

// migration003Up creates the indexes behind the list queries
func migration003Up(db *gorm.DB) error {
	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration003Down drops them
func migration003Down(db *gorm.DB) error {
	for name := range indexes {
		if err := db.Exec("DROP INDEX IF EXISTS " + name).Error; err != nil {
			return err
		}
	}
	return nil
}
