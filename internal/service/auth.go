// Package service implements registration, login and session identity on
// top of the credential store and the token manager.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/vaughan-dsouza/lmsauth/internal/apperr"
	"github.com/vaughan-dsouza/lmsauth/internal/auth"
	"github.com/vaughan-dsouza/lmsauth/internal/logging"
	"github.com/vaughan-dsouza/lmsauth/internal/models"
	"github.com/vaughan-dsouza/lmsauth/internal/store"
)

const (
	msgAllFieldsRequired  = "All fields are required"
	msgUserExists         = "User already exists"
	msgCredentialsMissing = "Email and password required"
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidToken       = "Invalid or expired token"
	msgPasswordTooLong    = "Password must be at most 72 bytes"

	// StatusActive is reported by Profile for a usable account.
	StatusActive = "active"
)

// UserStore is the slice of the credential store the service needs.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Role     string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

type Profile struct {
	Email  string
	Status string
}

type AuthService struct {
	users  UserStore
	hasher *auth.Hasher
	tokens *auth.TokenManager
	log    logging.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, hasher *auth.Hasher, tokens *auth.TokenManager, log logging.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an active user. FullName is required but not stored.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	if in.FullName == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		return apperr.NewValidation(msgAllFieldsRequired)
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return apperr.NewValidation(msgPasswordTooLong)
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return apperr.NewConflict(msgUserExists)
	case !errors.Is(err, store.ErrNotFound):
		return apperr.Wrap(err, "lookup user")
	}

	hash, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return apperr.NewValidation(msgPasswordTooLong)
		}
		return apperr.Wrap(err, "hash password")
	}

	u := &models.User{
		Email:     in.Email,
		Password:  hash,
		Role:      models.Role(in.Role),
		CreatedAt: s.now(),
		IsActive:  true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// lost the race against a concurrent registration
		if errors.Is(err, store.ErrDuplicateEmail) {
			return apperr.NewConflict(msgUserExists)
		}
		return apperr.Wrap(err, "create user")
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return nil
}

// Login verifies credentials and issues a session token. Unknown email,
// wrong password and inactive account are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, apperr.NewValidation(msgCredentialsMissing)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.CompareDummy([]byte(password))
			return nil, apperr.NewAuthentication(msgInvalidCredentials)
		}
		return nil, apperr.Wrap(err, "lookup user")
	}

	if err := s.hasher.Compare(u.Password, []byte(password)); err != nil {
		s.log.Info(ctx, "login rejected", "user_id", u.ID, "reason", "password")
		return nil, apperr.NewAuthentication(msgInvalidCredentials)
	}
	if !u.IsActive {
		s.log.Info(ctx, "login rejected", "user_id", u.ID, "reason", "inactive")
		return nil, apperr.NewAuthentication(msgInvalidCredentials)
	}

	token, exp, err := s.tokens.Issue(u.Email)
	if err != nil {
		return nil, apperr.Wrap(err, "issue token")
	}

	if err := s.users.UpdateLastLogin(ctx, u.ID, s.now()); err != nil {
		return nil, apperr.Wrap(err, "update last_login")
	}

	s.log.Info(ctx, "user logged in", "user_id", u.ID)
	return &LoginResult{Token: token, ExpiresAt: exp}, nil
}

// Authenticate verifies a bearer token and returns the identity it carries.
func (s *AuthService) Authenticate(token string) (auth.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, apperr.NewAuthentication(msgInvalidToken)
	}
	return auth.Identity{Email: claims.Email()}, nil
}

// Profile re-reads the account behind a verified identity so deleted or
// deactivated users are refused even while their token is unexpired.
func (s *AuthService) Profile(ctx context.Context, id auth.Identity) (*Profile, error) {
	u, err := s.users.GetByEmail(ctx, id.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NewAuthentication(msgInvalidToken)
		}
		return nil, apperr.Wrap(err, "lookup user")
	}
	if !u.IsActive {
		return nil, apperr.NewAuthentication(msgInvalidToken)
	}
	return &Profile{Email: u.Email, Status: StatusActive}, nil
}
