package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"gnosislens-api/internal/model"
	"gnosislens-api/internal/repository"
)

var (
	// ErrInvalidCredentials hides whether the username or password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserExists is returned when the username or email is taken.
	ErrUserExists = errors.New("username or email already registered")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	HomeCurrency string
	Location     string
}

// AuthResult is a user with a fresh session token.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,64}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

const minPasswordLength = 8

// AuthService registers users and exchanges credentials for sessions.
type AuthService struct {
	users  repository.UserRepository
	tokens *TokenService
	cost   int
	log    zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepository, tokens *TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		log:    log.With().Str("service", "auth").Logger(),
	}
}

// Register validates in, stores the user and opens a session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.HomeCurrency = strings.ToUpper(strings.TrimSpace(in.HomeCurrency))

	switch {
	case !usernamePattern.MatchString(in.Username):
		return nil, &ValidationError{Field: "username", Message: "must be 3-64 letters, digits, dots, dashes or underscores"}
	case !strings.Contains(in.Email, "@"):
		return nil, &ValidationError{Field: "email", Message: "must be a valid email address"}
	case len(in.Password) < minPasswordLength:
		return nil, &ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	case in.HomeCurrency != "" && !currencyPattern.MatchString(in.HomeCurrency):
		return nil, &ValidationError{Field: "homeCurrency", Message: "must be a 3-letter currency code"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		HomeCurrency: in.HomeCurrency,
		Location:     strings.TrimSpace(in.Location),
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return s.openSession(ctx, user)
}

// Login checks credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// Logout revokes token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.tokens.RevokeToken(ctx, token)
}

// CurrentUser loads the account behind a session.
func (s *AuthService) CurrentUser(ctx context.Context, session *model.SessionData) (*model.User, error) {
	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) openSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(ctx, model.SessionData{
		UserID:       user.ID,
		Username:     user.Username,
		DisplayName:  user.DisplayName(),
		HomeCurrency: user.HomeCurrency,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}
