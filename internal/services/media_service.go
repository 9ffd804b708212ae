package services

import (
	"context"
	"io"

	"github.com/gravadigital/eventhub-api/internal/blob"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/policy"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
)

// MediaService streams uploaded voice circulars and chat files
type MediaService struct {
	events repository.EventRepository
	blobs  blob.Store
}

func NewMediaService(events repository.EventRepository, blobs blob.Store) *MediaService {
	return &MediaService{events: events, blobs: blobs}
}

// Open returns the blob under key if u is a member of the event it belongs to.
// The caller closes the reader.
func (s *MediaService) Open(ctx context.Context, u *user.User, key string) (io.ReadCloser, blob.Object, error) {
	clean, ok := blob.CleanKey(key)
	if !ok {
		return nil, blob.Object{}, common.NewNotFound("media not found")
	}
	eventID, ok := blob.EventIDFromKey(clean)
	if !ok {
		return nil, blob.Object{}, common.NewNotFound("media not found")
	}

	e, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			return nil, blob.Object{}, common.NewNotFound("media not found")
		}
		return nil, blob.Object{}, err
	}
	if !policy.IsMemberOf(u, e) {
		return nil, blob.Object{}, common.NewAuthorization("not a member of this event")
	}
	return s.blobs.Get(ctx, clean)
}
