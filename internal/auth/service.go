// Package auth manages accounts, sessions and password lifecycle on top
// of the primary store.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/isagiyoichii/financial-tracker/internal/core"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

var (
	ErrEmailTaken          = errors.New("email already in use")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrWeakPassword        = errors.New("password too weak")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrRequiresRecentLogin = errors.New("operation requires recent sign-in")
)

// Message maps an auth error to text safe to show a user. Unknown errors
// collapse to a generic message so internals never leak.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return "An account with this email already exists."
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect email or password."
	case errors.Is(err, ErrWeakPassword):
		return "Password must be at least 8 characters."
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrInvalidResetToken):
		return "This reset link is invalid or has expired."
	case errors.Is(err, ErrRequiresRecentLogin):
		return "Please sign in again before changing your password."
	default:
		return "Something went wrong. Please try again."
	}
}

const (
	minPasswordLength = 8
	tokenBytes        = 32

	// recentLoginWindow bounds how old a session may be for sensitive
	// operations like password changes.
	recentLoginWindow = 15 * time.Minute
)

type Service struct {
	repo       *storage.Repository
	sessionTTL time.Duration
	resetTTL   time.Duration
}

func NewService(repo *storage.Repository, sessionTTL, resetTTL time.Duration) *Service {
	return &Service{repo: repo, sessionTTL: sessionTTL, resetTTL: resetTTL}
}

// SignUp creates an account and an initial session.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (core.UserProfile, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return core.UserProfile{}, "", ErrInvalidCredentials
	}
	if len(password) < minPasswordLength {
		return core.UserProfile{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.UserProfile{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	profile := core.UserProfile{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Currency:    "USD",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.repo.CreateUser(ctx, storage.UserRecord{Profile: profile, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return core.UserProfile{}, "", ErrEmailTaken
		}
		return core.UserProfile{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.openSession(ctx, profile.ID)
	if err != nil {
		return core.UserProfile{}, "", err
	}

	slog.InfoContext(ctx, "Account created", "user_id", profile.ID)
	return profile, token, nil
}

// SignIn verifies credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (core.UserProfile, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.UserProfile{}, "", ErrInvalidCredentials
		}
		return core.UserProfile{}, "", fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return core.UserProfile{}, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user.Profile.ID)
	if err != nil {
		return core.UserProfile{}, "", err
	}

	slog.InfoContext(ctx, "User signed in", "user_id", user.Profile.ID)
	return user.Profile, token, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

// Verify resolves a session token to its account.
func (s *Service) Verify(ctx context.Context, token string) (core.UserProfile, error) {
	session, err := s.repo.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.UserProfile{}, ErrSessionExpired
		}
		return core.UserProfile{}, fmt.Errorf("look up session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.repo.DeleteSession(ctx, token)
		return core.UserProfile{}, ErrSessionExpired
	}

	user, err := s.repo.GetUser(ctx, session.UserID)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("look up user: %w", err)
	}
	return user.Profile, nil
}

// RequestPasswordReset issues a single-use reset token. It succeeds even
// for unknown emails so the endpoint cannot be used to probe accounts;
// the returned token is empty in that case.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.InfoContext(ctx, "Password reset requested for unknown email")
			return "", nil
		}
		return "", fmt.Errorf("look up user: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return "", err
	}
	err = s.repo.CreateResetToken(ctx, storage.ResetToken{
		Token:     token,
		UserID:    user.Profile.ID,
		ExpiresAt: time.Now().Add(s.resetTTL),
	})
	if err != nil {
		return "", fmt.Errorf("create reset token: %w", err)
	}

	slog.InfoContext(ctx, "Password reset token issued", "user_id", user.Profile.ID)
	return token, nil
}

// ResetPassword consumes a reset token and revokes every open session.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	reset, err := s.repo.GetResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("look up reset token: %w", err)
	}
	if reset.Used || time.Now().After(reset.ExpiresAt) {
		return ErrInvalidResetToken
	}
	if err := s.repo.MarkResetTokenUsed(ctx, token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, reset.UserID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.repo.DeleteUserSessions(ctx, reset.UserID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	slog.InfoContext(ctx, "Password reset completed", "user_id", reset.UserID)
	return nil
}

// ChangePassword requires a recent session and the current password.
func (s *Service) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	session, err := s.repo.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSessionExpired
		}
		return fmt.Errorf("look up session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return ErrSessionExpired
	}
	if time.Since(session.CreatedAt) > recentLoginWindow {
		return ErrRequiresRecentLogin
	}

	user, err := s.repo.GetUser(ctx, session.UserID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.Profile.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slog.InfoContext(ctx, "Password changed", "user_id", user.Profile.ID)
	return nil
}

func (s *Service) openSession(ctx context.Context, userID string) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	err = s.repo.CreateSession(ctx, storage.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

func randomToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
