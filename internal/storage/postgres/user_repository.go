package postgres

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/logger"
)

// PostgresUserRepository implements UserRepository using GORM
type PostgresUserRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:  db,
		log: logger.Repository("user"),
	}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	r.log.Debug("Creating user", "subject_id", u.SubjectID, "email", u.Email)

	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		r.log.Error("Failed to create user", "error", err, "subject_id", u.SubjectID)
		return translate(err, "user")
	}

	r.log.Info("User created successfully", "id", u.ID, "email", u.Email)
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetBySubjectID(ctx context.Context, subjectID string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	users := make([]*user.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		r.log.Error("Failed to get users by IDs", "count", len(ids), "error", err)
		return nil, translate(err, "user")
	}
	return users, nil
}

func (r *PostgresUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error) {
	r.log.Debug("Updating user role", "id", id, "role", role)

	result := r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		r.log.Error("Failed to update user role", "id", id, "error", result.Error)
		return nil, translate(result.Error, "user")
	}
	if result.RowsAffected == 0 {
		return nil, common.NewNotFound("user not found")
	}

	r.log.Info("User role updated", "id", id, "role", role)
	return r.GetByID(ctx, id)
}
