package migrations

import "gorm.io/gorm"

var constraints = []struct {
	table string
	name  string
	def   string
}{
	{"users", "chk_users_role", "CHECK (role IN ('organizer', 'attendee'))"},
	{"events", "chk_events_join_code", "CHECK (join_code ~ '^[A-Z0-9]{6}$')"},
	{"event_circulars", "chk_event_circulars_kind", "CHECK (kind IN ('text', 'voice'))"},
	{"chat_messages", "chk_chat_messages_kind", "CHECK (kind IN ('text', 'announcement', 'image', 'file'))"},
	{"feedbacks", "chk_feedbacks_rating", "CHECK (rating BETWEEN 1 AND 5)"},
	{"events", "fk_events_organizer", "FOREIGN KEY (organizer_id) REFERENCES users(id) ON DELETE CASCADE"},
	{"event_attendees", "fk_event_attendees_user", "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
	{"chat_messages", "fk_chat_messages_event", "FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE"},
	{"feedbacks", "fk_feedbacks_event", "FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE"},
	{"feedbacks", "fk_feedbacks_user", "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
}

// migration004Up adds check constraints, the foreign keys AutoMigrate does not
// derive, and the updated_at trigger
func migration004Up(db *gorm.DB) error {
	for _, c := range constraints {
		if err := db.Exec("ALTER TABLE " + c.table + " ADD CONSTRAINT " + c.name + " " + c.def).Error; err != nil {
			return err
		}
	}

	if err := db.Exec(`
        CREATE OR REPLACE FUNCTION touch_updated_at()
        RETURNS TRIGGER AS $$
        BEGIN
            NEW.updated_at = NOW();
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`).Error; err != nil {
		return err
	}

	for _, table := range []string{"users", "events"} {
		if err := db.Exec(`
            CREATE TRIGGER trg_` + table + `_updated_at
            BEFORE UPDATE ON ` + table + `
            FOR EACH ROW EXECUTE FUNCTION touch_updated_at()`).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration004Down removes the triggers and constraints
func migration004Down(db *gorm.DB) error {
	for _, table := range []string{"users", "events"} {
		if err := db.Exec("DROP TRIGGER IF EXISTS trg_" + table + "_updated_at ON " + table).Error; err != nil {
			return err
		}
	}
	if err := db.Exec("DROP FUNCTION IF EXISTS touch_updated_at()").Error; err != nil {
		return err
	}
	for i := len(constraints) - 1; i >= 0; i-- {
		c := constraints[i]
		if err := db.Exec("ALTER TABLE " + c.table + " DROP CONSTRAINT IF EXISTS " + c.name).Error; err != nil {
			return err
		}
	}
	return nil
}
