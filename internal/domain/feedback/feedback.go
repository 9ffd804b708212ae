package feedback

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is an attendee's star rating of an event. One per (event, user).
type Feedback struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID     uuid.UUID `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:idx_feedbacks_event_user,priority:1"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_feedbacks_event_user,priority:2"`
	Rating      int       `json:"rating" gorm:"not null"`
	Comment     string    `json:"comment" gorm:"not null"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"not null;index"`
}

// TableName overrides the table name used by GORM
func (Feedback) TableName() string {
	return "feedbacks"
}

// BeforeCreate sets a UUID before creating the record
func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func NewFeedback(eventID, userID uuid.UUID, rating int, comment string) *Feedback {
	return &Feedback{
		ID:          uuid.New(),
		EventID:     eventID,
		UserID:      userID,
		Rating:      rating,
		Comment:     comment,
		SubmittedAt: time.Now().UTC(),
	}
}

// Validate checks the rating range and comment
func (f *Feedback) Validate() error {
	if f.Rating < MinRating || f.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	if f.Comment == "" {
		return fmt.Errorf("comment is required")
	}
	return nil
}

// View is a feedback entry as shown to event members
type View struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	EventName   string    `json:"event_name,omitempty"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submitted_at"`
	SubmittedBy string    `json:"submitted_by"`
}
