// Package mongo is the document-store backend. Each event document embeds its
// roster and circulars; chat messages and feedback live in their own
// collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
)

const (
	collUsers     = "users"
	collEvents    = "events"
	collMessages  = "chat_messages"
	collFeedbacks = "feedbacks"
)

// Container implements repository.Container on MongoDB
type Container struct {
	client *mongo.Client
	db     *mongo.Database
	log    *log.Logger

	users     *UserRepository
	events    *EventRepository
	chat      *ChatRepository
	feedbacks *FeedbackRepository
}

var _ repository.Container = (*Container)(nil)

// Connect dials uri, pings the primary and ensures indexes on dbName
func Connect(ctx context.Context, uri, dbName string) (*Container, error) {
	log := logger.Repository("mongo_container")
	log.Info("Connecting to MongoDB", "database", dbName)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	c := NewContainer(client, client.Database(dbName))
	if err := EnsureIndexes(ctx, c.db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	log.Info("MongoDB repository container initialized successfully")
	return c, nil
}

// NewContainer wraps an existing client and database
func NewContainer(client *mongo.Client, db *mongo.Database) *Container {
	return &Container{
		client:    client,
		db:        db,
		log:       logger.Repository("mongo_container"),
		users:     &UserRepository{c: db.Collection(collUsers), log: logger.Repository("user")},
		events:    &EventRepository{db: db, c: db.Collection(collEvents), log: logger.Repository("event")},
		chat:      &ChatRepository{c: db.Collection(collMessages), events: db.Collection(collEvents), log: logger.Repository("chat")},
		feedbacks: &FeedbackRepository{c: db.Collection(collFeedbacks), events: db.Collection(collEvents), log: logger.Repository("feedback")},
	}
}

func (c *Container) Users() repository.UserRepository {
	return c.users
}

func (c *Container) Events() repository.EventRepository {
	return c.events
}

func (c *Container) Chat() repository.ChatRepository {
	return c.chat
}

func (c *Container) Feedback() repository.FeedbackRepository {
	return c.feedbacks
}

func (c *Container) Health(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return translate(err, "database")
	}
	return nil
}

func (c *Container) Close(ctx context.Context) error {
	c.log.Info("Closing MongoDB repository container...")
	return c.client.Disconnect(ctx)
}

// Database exposes the underlying database
func (c *Container) Database() *mongo.Database {
	return c.db
}

// EnsureIndexes creates the unique and lookup indexes. Idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "subject_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_users_subject")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_users_email")},
		},
		collEvents: {
			{Keys: bson.D{{Key: "join_code", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_events_join_code")},
			{Keys: bson.D{{Key: "organizer_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_events_organizer_created")},
			{Keys: bson.D{{Key: "attendees.user_id", Value: 1}, {Key: "start_time", Value: 1}}, Options: options.Index().SetName("idx_events_attendee_start")},
		},
		collMessages: {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "sent_at", Value: 1}}, Options: options.Index().SetName("idx_chat_messages_event_sent")},
		},
		collFeedbacks: {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_feedbacks_event_user")},
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "submitted_at", Value: -1}}, Options: options.Index().SetName("idx_feedbacks_event_submitted")},
		},
	}

	var errs []error
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", coll, err))
		}
	}
	return errors.Join(errs...)
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return common.NewNotFound(what + " not found")
	case mongo.IsDuplicateKeyError(err):
		return common.NewConflict(what + " already exists")
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return common.NewTimeout("database operation timed out", err)
	default:
		return common.WrapStorage("database operation failed", err)
	}
}

func now() time.Time {
	return time.Now().UTC()
}
