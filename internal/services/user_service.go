package services

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
	"github.com/gravadigital/eventhub-api/internal/domain/user"
	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/metrics"
	"github.com/gravadigital/eventhub-api/internal/sanitize"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
	"github.com/gravadigital/eventhub-api/internal/validation"
)

// UserService provisions and updates the local user directory
type UserService struct {
	users     repository.UserRepository
	opts      Options
	validator validation.UserValidation
	log       *log.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, opts Options) *UserService {
	return &UserService{
		users: users,
		opts:  opts,
		log:   logger.Service("user"),
	}
}

// EnsureUser returns the user for id, creating it with the attendee role on
// first login. Concurrent first logins converge on one record through the
// unique subject index.
func (s *UserService) EnsureUser(ctx context.Context, id identity.Identity) (*user.User, error) {
	if strings.TrimSpace(id.SubjectID) == "" {
		return nil, common.NewAuthentication("token has no subject")
	}

	existing, err := s.users.GetBySubjectID(ctx, id.SubjectID)
	if err == nil {
		return existing, nil
	}
	if !common.IsKind(err, common.KindNotFound) {
		return nil, err
	}

	profile := user.Profile{
		SubjectID:   id.SubjectID,
		Email:       id.Email,
		DisplayName: sanitize.Text(id.DisplayName),
		AvatarURL:   id.AvatarURL,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = displayNameFromEmail(id.Email)
	}
	if strings.TrimSpace(profile.Email) == "" {
		return nil, common.NewValidation("token carries no email; sign in through /auth/login with an email first")
	}
	if err := s.validator.ValidateUserEmail(profile.Email); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUserName(profile.DisplayName); err != nil {
		return nil, err
	}

	u := user.NewUser(profile)
	if err := s.users.Create(ctx, u); err != nil {
		if !common.IsKind(err, common.KindConflict) {
			return nil, err
		}
		// lost the race, or the email belongs to another subject
		winner, getErr := s.users.GetBySubjectID(ctx, id.SubjectID)
		if getErr == nil {
			return winner, nil
		}
		if common.IsKind(getErr, common.KindNotFound) {
			return nil, common.NewConflict("email already registered to another account")
		}
		return nil, getErr
	}

	metrics.UsersProvisioned.Inc()
	s.log.Info("User provisioned", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// GetUser looks a user up by external subject id
func (s *UserService) GetUser(ctx context.Context, subjectID string) (*user.User, error) {
	u, err := s.users.GetBySubjectID(ctx, subjectID)
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			return nil, common.NewNotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

// SetRole changes the caller's own role. With self-service roles disabled a
// user cannot promote themselves to organizer.
func (s *UserService) SetRole(ctx context.Context, subjectID, role string) (*user.User, error) {
	parsed, ok := user.ParseRole(role)
	if !ok {
		return nil, common.NewValidation("role must be organizer or attendee")
	}

	u, err := s.GetUser(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if u.Role == parsed {
		return u, nil
	}
	if parsed == user.RoleOrganizer && !s.opts.OpenSelfServiceRoles {
		return nil, common.NewAuthorization("organizer role must be granted by an administrator")
	}

	updated, err := s.users.UpdateRole(ctx, u.ID, parsed)
	if err != nil {
		return nil, err
	}
	s.log.Info("User role changed", "user_id", u.ID, "from", u.Role, "to", parsed)
	return updated, nil
}

func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}
