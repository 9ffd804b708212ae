package event

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CircularKind is the medium of an organizer broadcast
type CircularKind string

const (
	CircularText  CircularKind = "text"
	CircularVoice CircularKind = "voice"
)

// CircularKindFromString converts a string to a CircularKind
func CircularKindFromString(s string) (CircularKind, bool) {
	switch CircularKind(s) {
	case CircularText:
		return CircularText, true
	case CircularVoice:
		return CircularVoice, true
	default:
		return "", false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (k *CircularKind) Scan(value any) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into CircularKind", value)
	}
	kind, valid := CircularKindFromString(str)
	if !valid {
		return fmt.Errorf("invalid circular kind: %s", str)
	}
	*k = kind
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (k CircularKind) Value() (driver.Value, error) {
	return string(k), nil
}

// Circular is an append-only organizer update attached to an event
type Circular struct {
	ID         uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	EventID    uuid.UUID    `json:"-" gorm:"type:uuid;not null;index:idx_event_circulars_event_sent,priority:1"`
	Kind       CircularKind `json:"kind" gorm:"type:varchar(8);not null"`
	Content    string       `json:"content,omitempty"`
	AudioRef   string       `json:"audio_ref,omitempty" gorm:"column:audio_ref"`
	SentAt     time.Time    `json:"sent_at" gorm:"not null;index:idx_event_circulars_event_sent,priority:2"`
	SentByName string       `json:"sent_by" gorm:"column:sent_by_name;not null"`
}

// TableName overrides the table name used by GORM
func (Circular) TableName() string {
	return "event_circulars"
}

// BeforeCreate sets a UUID before creating the record
func (c *Circular) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewTextCircular creates a text circular sent now
func NewTextCircular(eventID uuid.UUID, content, sentBy string) *Circular {
	return &Circular{
		ID:         uuid.New(),
		EventID:    eventID,
		Kind:       CircularText,
		Content:    content,
		SentAt:     time.Now().UTC(),
		SentByName: sentBy,
	}
}

// NewVoiceCircular creates a voice circular pointing at an uploaded recording
func NewVoiceCircular(eventID uuid.UUID, audioRef, sentBy string) *Circular {
	return &Circular{
		ID:         uuid.New(),
		EventID:    eventID,
		Kind:       CircularVoice,
		AudioRef:   audioRef,
		SentAt:     time.Now().UTC(),
		SentByName: sentBy,
	}
}

// Validate enforces the per-kind payload rules
func (c *Circular) Validate() error {
	switch c.Kind {
	case CircularText:
		if c.Content == "" {
			return fmt.Errorf("content cannot be empty")
		}
	case CircularVoice:
		if c.AudioRef == "" {
			return fmt.Errorf("voice circular requires an uploaded audio file")
		}
	default:
		return fmt.Errorf("invalid circular kind: %s", c.Kind)
	}
	return nil
}
