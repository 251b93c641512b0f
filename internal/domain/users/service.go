// Package users implements account management: signup with field-level
// validation, email/password authentication, and the public profile
// projection joined onto listed events.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt password hashing.
const BcryptCost = 12

type IDGenerator func() (string, error)

// Service handles user account operations.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	validate *validator.Validate
	newID    IDGenerator
}

func NewService(repo Repository, newID IDGenerator, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		logger:   logger.With().Str("component", "users").Logger(),
		validate: validator.New(),
		newID:    newID,
	}
}

type SignupParams struct {
	Email    string
	Phone    string
	Password string
	Role     Role
}

// Signup validates the parameters, enforces email uniqueness at write
// time, and creates an active user with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*User, error) {
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Phone = strings.TrimSpace(params.Phone)

	if err := validateSignup(s.validate, params); err != nil {
		return nil, err
	}
	if params.Role == "" {
		params.Role = RoleUser
	}

	existing, err := s.repo.GetByEmail(ctx, params.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("mint user id: %w", err)
	}

	user := &User{
		ID:           id,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: string(hash),
		Activity:     true,
		Role:         params.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("user account created")
	return user, nil
}

// Authenticate verifies email/password credentials. Failures never reveal
// whether the email exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.Activity {
		return nil, ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.Debug().Str("user_id", user.ID).Msg("user authenticated")
	return user, nil
}

// GetByEmail resolves a user by normalized email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}
