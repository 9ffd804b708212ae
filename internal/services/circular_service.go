package services

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/blob"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/metrics"
	"github.com/gravadigital/eventhub-api/internal/policy"
	"github.com/gravadigital/eventhub-api/internal/sanitize"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
	"github.com/gravadigital/eventhub-api/internal/validation"
)

// CircularService appends and lists organizer broadcasts
type CircularService struct {
	events    repository.EventRepository
	blobs     blob.Store
	opts      Options
	validator validation.MessageValidation
	log       *log.Logger
}

func NewCircularService(events repository.EventRepository, blobs blob.Store, opts Options) *CircularService {
	return &CircularService{
		events: events,
		blobs:  blobs,
		opts:   opts,
		log:    logger.Service("circular"),
	}
}

// CircularInput is a text circular (Content) or a voice circular (Audio).
// An empty Kind is inferred from which of the two is set.
type CircularInput struct {
	Kind    string
	Content string
	Audio   *Upload
}

// Append posts a circular to the event. Only the organizer may.
func (s *CircularService) Append(ctx context.Context, u *user.User, eventID uuid.UUID, in CircularInput) (*event.Circular, error) {
	e, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanPostAnnouncement(u, e) {
		return nil, common.NewAuthorization("only the organizer can post circulars")
	}

	kind := event.CircularKind(in.Kind)
	if in.Kind == "" {
		kind = event.CircularText
		if in.Audio != nil {
			kind = event.CircularVoice
		}
	}

	var c *event.Circular
	switch kind {
	case event.CircularText:
		content := sanitize.Text(in.Content)
		if err := s.validator.ValidateContent(content); err != nil {
			return nil, err
		}
		c = event.NewTextCircular(e.ID, content, u.DisplayName)
	case event.CircularVoice:
		key, err := s.storeAudio(ctx, e.ID, in.Audio)
		if err != nil {
			return nil, err
		}
		c = event.NewVoiceCircular(e.ID, key, u.DisplayName)
	default:
		return nil, common.NewValidation("circular kind must be text or voice")
	}
	if err := c.Validate(); err != nil {
		deleteBlobs(ctx, s.blobs, s.log, c.AudioRef)
		return nil, common.NewValidation(err.Error())
	}

	if err := s.events.AppendCircular(ctx, c); err != nil {
		deleteBlobs(ctx, s.blobs, s.log, c.AudioRef)
		return nil, err
	}
	metrics.Circulars.WithLabelValues(string(c.Kind)).Inc()
	s.log.Info("Circular posted", "event_id", e.ID, "kind", c.Kind)
	return c, nil
}

func (s *CircularService) storeAudio(ctx context.Context, eventID uuid.UUID, audio *Upload) (string, error) {
	if audio == nil || audio.Body == nil {
		return "", common.NewValidation("voice circular requires an audio file")
	}
	contentType := blob.BaseType(audio.ContentType)
	if !strings.HasPrefix(contentType, "audio/") {
		return "", common.NewValidation("voice circular must be an audio file")
	}
	if audio.Size <= 0 {
		return "", common.NewValidation("audio file is empty")
	}
	if audio.Size > s.opts.MaxAudioSize {
		return "", common.NewValidation("audio file is too large")
	}
	detected, body, err := blob.Sniff(audio.Body)
	if err != nil {
		return "", common.NewValidation("failed to read audio file")
	}
	if blob.IsActive(detected) {
		return "", common.NewValidation("voice circular must be an audio file")
	}

	key := blob.NewKey(blob.PrefixCirculars, eventID, audio.Filename)
	obj, err := s.blobs.Put(ctx, key, body, audio.Size, contentType)
	if err != nil {
		return "", err
	}
	metrics.UploadBytes.WithLabelValues("circular").Add(float64(obj.Size))
	return obj.Key, nil
}

// List returns the event's circulars oldest first. Members only.
func (s *CircularService) List(ctx context.Context, u *user.User, eventID uuid.UUID) ([]event.Circular, error) {
	e, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewCirculars(u, e) {
		return nil, common.NewAuthorization("not a member of this event")
	}
	e.SortChildren()
	return e.Circulars, nil
}
