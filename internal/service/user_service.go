package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"cricketpark/internal/database"
	"cricketpark/internal/domain"
	"cricketpark/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type RegisterUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone_number,omitempty"`
	Role      string `json:"role,omitempty"`
}

// UserUpdate holds the profile fields a user update may change. Nil fields are left alone.
type UserUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone_number,omitempty"`
}

type UserService struct {
	store  domain.UserStore
	logger *zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewUserService(store domain.UserStore, logger *zerolog.Logger) *UserService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &UserService{store: store, logger: logger, now: time.Now, newID: uuid.NewString}
}

func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", domain.ErrInvalidInput, req.Email)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.IsRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	user := &models.User{
		ID:        s.newID(),
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
		Role:      role,
		IsActive:  true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		s.logger.Error().Err(err).Str("op", "register_user").Msg("storage error")
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "get_user").Str("user_id", id).Msg("storage error")
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "list_users").Msg("storage error")
		return nil, err
	}
	return users, nil
}

// Update changes the profile of an active user. Email and role are not editable here.
func (s *UserService) Update(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Phone != nil {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}

	now := s.now().UTC()
	user.UpdatedAt = &now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("op", "update_user").Str("user_id", id).Msg("storage error")
		return nil, err
	}
	return user, nil
}

// Deactivate soft-deletes the user. Their bookings are left as they are.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	user.IsActive = false
	user.UpdatedAt = &now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("op", "deactivate_user").Str("user_id", id).Msg("storage error")
		return err
	}
	return nil
}
