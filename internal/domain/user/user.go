package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the coarse capability a user selected for themselves
type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
)

// ParseRole normalizes a role string, reporting whether it is one of the known roles
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleOrganizer:
		return RoleOrganizer, true
	case RoleAttendee:
		return RoleAttendee, true
	default:
		return "", false
	}
}

// User is the local record of an identity issued by the external provider
type User struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SubjectID   string    `json:"subject_id" gorm:"column:subject_id;size:128;uniqueIndex;not null"`
	Email       string    `json:"email" gorm:"size:320;uniqueIndex;not null"`
	DisplayName string    `json:"name" gorm:"column:display_name;not null"`
	AvatarURL   string    `json:"avatar_url,omitempty" gorm:"column:avatar_url"`
	Role        Role      `json:"role" gorm:"type:varchar(16);not null;default:'attendee'"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate sets a UUID before creating the record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Profile carries the identity attributes used to provision a user on first login
type Profile struct {
	SubjectID   string
	Email       string
	DisplayName string
	AvatarURL   string
}

// NewUser creates a user from a login profile. New users start as attendees.
func NewUser(profile Profile) *User {
	now := time.Now().UTC()
	return &User{
		ID:          uuid.New(),
		SubjectID:   profile.SubjectID,
		Email:       strings.ToLower(strings.TrimSpace(profile.Email)),
		DisplayName: strings.TrimSpace(profile.DisplayName),
		AvatarURL:   strings.TrimSpace(profile.AvatarURL),
		Role:        RoleAttendee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u *User) IsOrganizer() bool {
	return u.Role == RoleOrganizer
}

func (u *User) IsAttendee() bool {
	return u.Role == RoleAttendee
}
