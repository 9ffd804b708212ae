package migrations

import "gorm.io/gorm"

// migration001Up creates extensions
func migration001Up(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

// migration001Down is a no-op; the UUID extension may be shared with other schemas
func migration001Down(db *gorm.DB) error {
	return nil
}
