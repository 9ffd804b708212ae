package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind is the type of a chat message
type Kind string

const (
	KindText         Kind = "text"
	KindAnnouncement Kind = "announcement"
	KindImage        Kind = "image"
	KindFile         Kind = "file"
)

// ParseKind converts a string to a Kind. An empty string means text.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case "", KindText:
		return KindText, true
	case KindAnnouncement, KindImage, KindFile:
		return Kind(s), true
	default:
		return "", false
	}
}

// CarriesFile reports whether messages of this kind reference an uploaded file
func (k Kind) CarriesFile() bool {
	return k == KindImage || k == KindFile
}

// Message is a chat message posted to an event. Messages are never edited.
type Message struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID    uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index:idx_chat_messages_event_sent,priority:1"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	SenderName string    `json:"sender_name" gorm:"not null"`
	Content    string    `json:"content" gorm:"not null"`
	Kind       Kind      `json:"kind" gorm:"type:varchar(16);not null;default:'text'"`
	FileRef    string    `json:"file_ref,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	FileSize   int64     `json:"file_size,omitempty"`
	MimeType   string    `json:"mime_type,omitempty"`
	SentAt     time.Time `json:"sent_at" gorm:"not null;index:idx_chat_messages_event_sent,priority:2"`
}

// TableName overrides the table name
func (Message) TableName() string {
	return "chat_messages"
}

// BeforeCreate will set a UUID rather than numeric ID.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Attachment describes an uploaded file a message can reference
type Attachment struct {
	FileRef  string `json:"file_ref"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

func NewMessage(eventID, userID uuid.UUID, senderName, content string, kind Kind, file *Attachment) *Message {
	m := &Message{
		ID:         uuid.New(),
		EventID:    eventID,
		UserID:     userID,
		SenderName: senderName,
		Content:    content,
		Kind:       kind,
		SentAt:     time.Now().UTC(),
	}
	if file != nil {
		m.FileRef = file.FileRef
		m.FileName = file.FileName
		m.FileSize = file.FileSize
		m.MimeType = file.MimeType
	}
	return m
}

// Validate checks content and the file fields required by the kind
func (m *Message) Validate() error {
	if m.Content == "" {
		return fmt.Errorf("message content is required")
	}
	if _, ok := ParseKind(string(m.Kind)); !ok {
		return fmt.Errorf("invalid message kind: %s", m.Kind)
	}
	if m.Kind.CarriesFile() && m.FileRef == "" {
		return fmt.Errorf("%s messages require an uploaded file", m.Kind)
	}
	if m.FileSize < 0 {
		return fmt.Errorf("file size cannot be negative")
	}
	return nil
}
