package service

import (
	"context"
	"errors"
	"strings"

	"home-budget/internal/auth"
	"home-budget/internal/domain"
	"home-budget/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering with an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
)

// ValidationError marks malformed caller input; handlers surface it with a
// 400 and the message verbatim.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	// GetByEmail resolves a token subject to its account. Absence is
	// reported as repository.ErrNotFound; callers collapse it into their
	// own unauthorized error.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userService struct {
	users           repository.UserRepository
	startingBalance int64
}

// NewUserService builds a UserService. startingBalance is the whole-unit
// balance assigned to every new account.
func NewUserService(users repository.UserRepository, startingBalance int64) UserService {
	return &userService{
		users:           users,
		startingBalance: startingBalance,
	}
}

func (s *userService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	password = strings.TrimSpace(password)

	if email == "" || !strings.Contains(email, "@") {
		return nil, ValidationError("a valid email is required")
	}
	if password == "" {
		return nil, ValidationError("password is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:           email,
		PasswordHash:    hash,
		StartingBalance: s.startingBalance,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// sanitizeUser strips the password hash before a user leaves the service
// layer.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:              user.ID,
		Email:           user.Email,
		StartingBalance: user.StartingBalance,
		CreatedAt:       user.CreatedAt,
	}
}
