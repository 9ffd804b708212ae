package services

import (
	"context"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/blob"
	"github.com/gravadigital/eventhub-api/internal/domain/chat"
	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/metrics"
	"github.com/gravadigital/eventhub-api/internal/policy"
	"github.com/gravadigital/eventhub-api/internal/sanitize"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
	"github.com/gravadigital/eventhub-api/internal/validation"
)

// ChatService posts, lists and moderates event chat
type ChatService struct {
	events    repository.EventRepository
	messages  repository.ChatRepository
	blobs     blob.Store
	opts      Options
	validator validation.MessageValidation
	log       *log.Logger
}

func NewChatService(events repository.EventRepository, messages repository.ChatRepository, blobs blob.Store, opts Options) *ChatService {
	return &ChatService{
		events:   events,
		messages: messages,
		blobs:    blobs,
		opts:     opts,
		log:      logger.Service("chat"),
	}
}

// MessageInput is a chat message from a client. Image and file messages
// reference an attachment returned by UploadAttachment.
type MessageInput struct {
	Content    string
	Kind       string
	Attachment *chat.Attachment
}

// Send posts a message. Members may chat; announcements are organizer only.
func (s *ChatService) Send(ctx context.Context, u *user.User, eventID uuid.UUID, in MessageInput) (*chat.Message, error) {
	e, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanSendChat(u, e) {
		return nil, common.NewAuthorization("not a member of this event")
	}

	kind, ok := chat.ParseKind(in.Kind)
	if !ok {
		return nil, common.NewValidation("message kind must be text, announcement, image or file")
	}
	if kind == chat.KindAnnouncement && !policy.CanPostAnnouncement(u, e) {
		return nil, common.NewAuthorization("only the organizer can post announcements")
	}

	var attachment *chat.Attachment
	if kind.CarriesFile() {
		attachment, err = s.storedAttachment(ctx, e.ID, kind, in.Attachment)
		if err != nil {
			return nil, err
		}
	}

	content := sanitize.Text(in.Content)
	if content == "" && attachment != nil {
		content = attachment.FileName
	}
	if err := s.validator.ValidateContent(content); err != nil {
		return nil, err
	}

	m := chat.NewMessage(e.ID, u.ID, u.DisplayName, content, kind, attachment)
	if err := m.Validate(); err != nil {
		return nil, common.NewValidation(err.Error())
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}

	metrics.ChatMessages.WithLabelValues(string(kind)).Inc()
	s.log.Debug("Chat message sent", "event_id", e.ID, "user_id", u.ID, "kind", kind)
	return m, nil
}

// List returns the event's messages oldest first, and whether u organizes it
func (s *ChatService) List(ctx context.Context, u *user.User, eventID uuid.UUID) ([]*chat.Message, bool, error) {
	e, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, false, err
	}
	if !policy.CanViewChat(u, e) {
		return nil, false, common.NewAuthorization("not a member of this event")
	}
	messages, err := s.messages.ListByEvent(ctx, e.ID)
	if err != nil {
		return nil, false, err
	}
	return messages, policy.IsOrganizerOf(u, e), nil
}

// Delete removes a message from the event. Only the organizer may.
func (s *ChatService) Delete(ctx context.Context, u *user.User, eventID, messageID uuid.UUID) error {
	e, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteChat(u, e) {
		return common.NewAuthorization("only the organizer can delete messages")
	}

	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.EventID != e.ID {
		return common.NewNotFound("message not found")
	}
	if err := s.messages.Delete(ctx, messageID); err != nil {
		return err
	}
	s.log.Info("Chat message deleted", "event_id", e.ID, "message_id", messageID)

	deleteBlobs(ctx, s.blobs, s.log, m.FileRef)
	return nil
}

// UploadAttachment stores a file for a later image or file message
func (s *ChatService) UploadAttachment(ctx context.Context, u *user.User, eventID uuid.UUID, up Upload) (*chat.Attachment, error) {
	e, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanSendChat(u, e) {
		return nil, common.NewAuthorization("not a member of this event")
	}
	if up.Body == nil || up.Size <= 0 {
		return nil, common.NewValidation("file is empty")
	}
	if up.Size > s.opts.MaxFileSize {
		return nil, common.NewValidation("file is too large")
	}
	contentType, body, err := blob.Sniff(up.Body)
	if err != nil {
		return nil, common.NewValidation("failed to read upload")
	}
	if blob.IsActive(contentType) {
		return nil, common.NewValidation("file type " + blob.BaseType(contentType) + " is not allowed")
	}

	key := blob.NewKey(blob.PrefixChat, e.ID, up.Filename)
	obj, err := s.blobs.Put(ctx, key, body, up.Size, contentType)
	if err != nil {
		return nil, err
	}
	metrics.UploadBytes.WithLabelValues("chat").Add(float64(obj.Size))

	return &chat.Attachment{
		FileRef:  obj.Key,
		FileName: sanitize.Text(path.Base(strings.ReplaceAll(up.Filename, "\\", "/"))),
		FileSize: obj.Size,
		MimeType: obj.ContentType,
	}, nil
}

// storedAttachment checks that ref points at a chat upload of this event and
// takes size and type from the store rather than the client
func (s *ChatService) storedAttachment(ctx context.Context, eventID uuid.UUID, kind chat.Kind, ref *chat.Attachment) (*chat.Attachment, error) {
	if ref == nil {
		return nil, common.NewValidation(string(kind) + " messages require an uploaded file")
	}
	key, ok := blob.CleanKey(ref.FileRef)
	owner, inEvent := blob.EventIDFromKey(key)
	if !ok || !inEvent || owner != eventID || !strings.HasPrefix(key, blob.PrefixChat+"/") {
		return nil, common.NewValidation("file_ref does not belong to this event")
	}

	obj, err := s.blobs.Stat(ctx, key)
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			return nil, common.NewValidation("file_ref does not reference an uploaded file")
		}
		return nil, err
	}
	if kind == chat.KindImage && !blob.IsRasterImage(obj.ContentType) {
		return nil, common.NewValidation("image messages require a png, jpeg, gif or webp upload")
	}

	name := sanitize.Text(path.Base(strings.ReplaceAll(ref.FileName, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		name = path.Base(key)
	}
	return &chat.Attachment{
		FileRef:  key,
		FileName: name,
		FileSize: obj.Size,
		MimeType: blob.BaseType(obj.ContentType),
	}, nil
}
