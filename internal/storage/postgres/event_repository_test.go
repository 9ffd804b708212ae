package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestAddAttendeeConditionalInsert(t *testing.T) {
	tests := []struct {
		name    string
		result  driver.Result
		wantErr error
	}{
		{"first join inserts", sqlmock.NewResult(0, 1), nil},
		{"second join is a conflict", sqlmock.NewResult(0, 0), common.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresEventRepository(db)

			mock.ExpectExec(`INSERT INTO "event_attendees" .* ON CONFLICT DO NOTHING`).
				WillReturnResult(tt.result)

			a, err := repo.AddAttendee(context.Background(), uuid.New(), uuid.New())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, a)
			} else {
				require.NoError(t, err)
				assert.False(t, a.JoinedAt.IsZero())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAddAttendeeDriverFailureIsStorageError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresEventRepository(db)

	mock.ExpectExec(`INSERT INTO "event_attendees"`).WillReturnError(errors.New("connection reset"))

	_, err := repo.AddAttendee(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveAttendeeNotOnRoster(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresEventRepository(db)

	mock.ExpectExec(`DELETE FROM "event_attendees" WHERE event_id = .* AND user_id = .*`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveAttendee(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingEvent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresEventRepository(db)

	mock.ExpectExec(`UPDATE "events" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	name := "Renamed"
	_, err := repo.Update(context.Background(), uuid.New(), event.Patch{Name: &name})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoleMissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateRole(context.Background(), uuid.New(), user.RoleOrganizer)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingEventRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresEventRepository(db)

	mock.ExpectBegin()
	for _, table := range []string{"chat_messages", "feedbacks", "event_circulars", "event_attendees"} {
		mock.ExpectExec(`DELETE FROM "` + table + `"`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(`DELETE FROM "events"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "event"))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound, "event"), common.ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey, "event"), common.ErrConflict)
	assert.ErrorIs(t, translate(gorm.ErrForeignKeyViolated, "event"), common.ErrNotFound)
	assert.ErrorIs(t, translate(context.DeadlineExceeded, "event"), common.ErrTimeout)
	assert.ErrorIs(t, translate(errors.New("boom"), "event"), common.ErrStorage)
}
