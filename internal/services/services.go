// Package services holds the business rules of the event service. Every
// operation takes the acting user, loads what it needs through the
// repositories and asks the policy package before reading or writing.
package services

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/blob"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
)

// Options tunes service behaviour from configuration
type Options struct {
	// OpenSelfServiceRoles lets users promote themselves to organizer
	OpenSelfServiceRoles bool
	MaxAudioSize         int64
	MaxFileSize          int64
	JoinCodeAttempts     int
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		OpenSelfServiceRoles: true,
		MaxAudioSize:         10 << 20,
		MaxFileSize:          10 << 20,
		JoinCodeAttempts:     10,
	}
}

// Upload is a file received from a client
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Services bundles every service over one storage backend and blob store
type Services struct {
	Users     *UserService
	Events    *EventService
	Circulars *CircularService
	Chat      *ChatService
	Feedback  *FeedbackService
	Media     *MediaService
}

// New wires the services together
func New(repos repository.Container, blobs blob.Store, opts Options) *Services {
	if opts.JoinCodeAttempts <= 0 {
		opts.JoinCodeAttempts = DefaultOptions().JoinCodeAttempts
	}
	return &Services{
		Users:     NewUserService(repos.Users(), opts),
		Events:    NewEventService(repos, blobs, opts),
		Circulars: NewCircularService(repos.Events(), blobs, opts),
		Chat:      NewChatService(repos.Events(), repos.Chat(), blobs, opts),
		Feedback:  NewFeedbackService(repos, opts),
		Media:     NewMediaService(repos.Events(), blobs),
	}
}

// loadEvent fetches an event or reports it as not found
func loadEvent(ctx context.Context, events repository.EventRepository, id uuid.UUID) (*event.Event, error) {
	e, err := events.GetByID(ctx, id)
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			return nil, common.NewNotFound("event not found")
		}
		return nil, err
	}
	return e, nil
}

// deleteBlobs removes stored media after its records are gone. Failures are
// logged; the records no longer reference the keys.
func deleteBlobs(ctx context.Context, blobs blob.Store, log *log.Logger, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := blobs.Delete(ctx, key); err != nil {
			log.Warn("Failed to delete media", "key", key, "error", err)
		}
	}
}
