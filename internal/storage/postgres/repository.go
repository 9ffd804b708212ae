package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
)

var (
	_ repository.UserRepository     = (*PostgresUserRepository)(nil)
	_ repository.EventRepository    = (*PostgresEventRepository)(nil)
	_ repository.ChatRepository     = (*PostgresChatRepository)(nil)
	_ repository.FeedbackRepository = (*PostgresFeedbackRepository)(nil)
	_ repository.Container          = (*Container)(nil)
)

// translate maps a GORM error onto the common error kinds. The connection is
// opened with TranslateError so unique and foreign key violations arrive as
// gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return common.NewNotFound(what + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return common.NewConflict(what + " already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return common.NewNotFound("referenced record not found")
	case errors.Is(err, context.DeadlineExceeded):
		return common.NewTimeout("database operation timed out", err)
	default:
		return common.WrapStorage("database operation failed", err)
	}
}
