// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"trimtrack/internal/domain"
	"trimtrack/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = fmt.Errorf("%w: unknown session", domain.ErrAuthExpired)
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = fmt.Errorf("%w: past expiry", domain.ErrAuthExpired)
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", domain.ErrNotFound)
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
)

// AuthService handles authentication and session management.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	profiles   domain.ProfileRepository
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, profiles domain.ProfileRepository) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		profiles:   profiles,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
}

// WithSessionTTL overrides DefaultSessionTTL.
func (s *AuthService) WithSessionTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
	return s
}

// WithClock overrides the time source. Intended for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func validateCredentials(username, password string) error {
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d to %d characters", domain.ErrInvalidValue, minUsernameLen, maxUsernameLen)
	}
	if strings.ContainsAny(username, " \t\r\n/") {
		return fmt.Errorf("%w: username must not contain spaces or slashes", domain.ErrInvalidValue)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidValue, minPasswordLen)
	}
	return nil
}

// Register creates a user with a profile built from patch and logs them in.
func (s *AuthService) Register(ctx context.Context, username, password string, patch domain.ProfilePatch) (_ *domain.AuthResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.register")
	defer func() { tracing.End(span, err) }()

	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	if err := validateProfilePatch(patch); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	profile := domain.NewProfile(user.ID, s.now())
	profile.Apply(patch)
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	log.WithField("username", username).Info("user registered")
	return s.issue(ctx, user)
}

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (_ *domain.AuthResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	defer func() { tracing.End(span, err) }()

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil || user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.sessionTTL)
	if err := s.sessions.Create(ctx, user.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &domain.AuthResult{User: user, Token: token}, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks that a session token exists and has not expired.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		// The account was removed while the session lived on.
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// PruneSessions deletes expired sessions.
func (s *AuthService) PruneSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

// CreateInitialUser creates the first user if no users exist.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password string) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		return errors.New("users already exist")
	}

	if err := validateCredentials(username, password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		return err
	}
	return s.profiles.SaveProfile(ctx, domain.NewProfile(user.ID, s.now()))
}

// ValidateForwardAuth resolves the user named by an upstream proxy's
// Remote-User header, provisioning it on first sight.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser string) (*domain.User, error) {
	if remoteUser == "" {
		return nil, errors.New("no remote user header")
	}
	return s.provision(ctx, remoteUser)
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, username string) (_ *domain.AuthResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.loginwithuser")
	defer func() { tracing.End(span, err) }()

	user, err := s.provision(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// provision returns the user named username, creating it with an empty
// password hash when missing. Such users can only log in through SSO.
func (s *AuthService) provision(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err == nil && user != nil {
		return user, nil
	}

	user, err = s.users.Create(ctx, username, "")
	if err != nil {
		// Lost a race with a concurrent first login.
		user, err = s.users.GetByUsername(ctx, username)
		if err != nil || user == nil {
			return nil, fmt.Errorf("provision %q: %w", username, ErrUserNotFound)
		}
		return user, nil
	}
	if err := s.profiles.SaveProfile(ctx, domain.NewProfile(user.ID, s.now())); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	log.WithField("username", username).Info("user provisioned from sso")
	return user, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
