// ABOUTME: Signup and login flows built on bcrypt hashes and JWT tokens
// ABOUTME: Timing-safe credential checks; identity lives in the users table

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yujung915/research-manager/internal/store"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,31}$`)

// Signup and login errors
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrBadUsername        = errors.New("username must be 3-32 characters, start with a letter, and contain only letters, numbers, and underscores")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// dummyHash is compared against when the username doesn't exist, so login
// timing doesn't reveal which usernames are registered.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserStore is the slice of the store the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUser(ctx context.Context, id string) (*store.User, error)
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
}

// Service handles user registration and login.
type Service struct {
	users    UserStore
	verifier *JWTVerifier
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewService creates an auth service issuing tokens with the given TTL.
func NewService(users UserStore, verifier *JWTVerifier, tokenTTL time.Duration) *Service {
	return &Service{
		users:    users,
		verifier: verifier,
		tokenTTL: tokenTTL,
		logger:   slog.Default().With("component", "auth"),
	}
}

// Register creates a new user account.
// Returns store.ErrUsernameExists if the username is taken.
func (s *Service) Register(ctx context.Context, username, password string) (*store.User, error) {
	if !usernameRegex.MatchString(username) {
		return nil, ErrBadUsername
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("registered user", "username", username)
	return user, nil
}

// Login checks the credentials and mints a bearer token.
// All failure paths run a bcrypt comparison so response timing stays flat.
func (s *Service) Login(ctx context.Context, username, password string) (string, *store.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.verifier.Generate(user.ID, user.Username, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("generating token: %w", err)
	}

	s.logger.Info("user logged in", "username", username)
	return token, user, nil
}
