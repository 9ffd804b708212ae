package validation

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/event"
	"github.com/gravadigital/eventhub-api/internal/domain/feedback"
)

// ValidateRequired checks that a field is not blank
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return common.NewValidation(fieldName + " is required")
	}
	return nil
}

// ValidateMinLength checks the minimum length of a string in runes
func ValidateMinLength(value string, minLength int, fieldName string) error {
	if utf8.RuneCountInString(value) < minLength {
		return common.NewValidation(fieldName + " must be at least " + strconv.Itoa(minLength) + " characters long")
	}
	return nil
}

// ValidateMaxLength checks the maximum length of a string in runes
func ValidateMaxLength(value string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(value) > maxLength {
		return common.NewValidation(fieldName + " must be at most " + strconv.Itoa(maxLength) + " characters long")
	}
	return nil
}

// ParseUUID parses a path parameter, reporting a validation error on failure
func ParseUUID(value, fieldName string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, common.NewValidation(fieldName + " must be a valid UUID")
	}
	return id, nil
}

// ValidateEmail checks the basic shape of an email address
func ValidateEmail(email string) error {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" || domain == "" {
		return common.NewValidation("email must have a valid format")
	}
	return nil
}

// ValidateStartTime rejects a missing start time
func ValidateStartTime(start time.Time) error {
	if start.IsZero() {
		return common.NewValidation("start_time is required")
	}
	return nil
}

// ValidateRating checks the star rating range
func ValidateRating(rating int) error {
	if rating < feedback.MinRating || rating > feedback.MaxRating {
		return common.NewValidation("rating must be between " + strconv.Itoa(feedback.MinRating) + " and " + strconv.Itoa(feedback.MaxRating))
	}
	return nil
}

// ValidateJoinCode checks user input before it is normalized and looked up
func ValidateJoinCode(code string) error {
	if !event.ValidJoinCode(event.NormalizeJoinCode(code)) {
		return common.NewValidation("join code must be " + strconv.Itoa(event.JoinCodeLength) + " letters or digits")
	}
	return nil
}

// EventValidation holds the event field rules
type EventValidation struct{}

// ValidateEventName validates an event name
func (v EventValidation) ValidateEventName(name string) error {
	if err := ValidateRequired(name, "name"); err != nil {
		return err
	}
	return ValidateMaxLength(name, 200, "name")
}

// ValidateEventDescription validates an event description
func (v EventValidation) ValidateEventDescription(description string) error {
	if err := ValidateRequired(description, "description"); err != nil {
		return err
	}
	return ValidateMaxLength(description, 5000, "description")
}

func (v EventValidation) ValidateLocation(location string) error {
	if err := ValidateRequired(location, "location"); err != nil {
		return err
	}
	return ValidateMaxLength(location, 300, "location")
}

// UserValidation holds the user profile rules
type UserValidation struct{}

// ValidateUserName validates a display name
func (v UserValidation) ValidateUserName(name string) error {
	if err := ValidateRequired(name, "name"); err != nil {
		return err
	}
	return ValidateMaxLength(name, 100, "name")
}

// ValidateUserEmail validates the email of a user
func (v UserValidation) ValidateUserEmail(email string) error {
	if err := ValidateRequired(email, "email"); err != nil {
		return err
	}
	return ValidateEmail(email)
}

// MessageValidation holds the chat and circular text rules
type MessageValidation struct{}

func (v MessageValidation) ValidateContent(content string) error {
	if err := ValidateRequired(content, "content"); err != nil {
		return err
	}
	return ValidateMaxLength(content, 4000, "content")
}

// FeedbackValidation holds the feedback rules
type FeedbackValidation struct{}

func (v FeedbackValidation) ValidateFeedback(rating int, comment string) error {
	if err := ValidateRating(rating); err != nil {
		return err
	}
	if err := ValidateRequired(comment, "comment"); err != nil {
		return err
	}
	return ValidateMaxLength(comment, 2000, "comment")
}

// RegisterBindings adds the custom struct tags used by request DTOs to gin's
// validator engine. Safe to call more than once.
func RegisterBindings() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return engine.RegisterValidation("joincode", func(fl validator.FieldLevel) bool {
		return event.ValidJoinCode(event.NormalizeJoinCode(fl.Field().String()))
	})
}
