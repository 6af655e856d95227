package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

// Account access runs on the Repository rather than a UserStore: sign-in
// and password reset happen before any account is resolved.

type UserRecord struct {
	Profile      core.UserProfile
	PasswordHash string
}

type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type ResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	Used      bool
}

var ErrDuplicateEmail = errors.New("email already registered")

const userColumns = `id, email, display_name, photo_url, currency, password_hash, created_at, updated_at`

func (r *Repository) CreateUser(ctx context.Context, u UserRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Profile.ID, strings.ToLower(u.Profile.Email), u.Profile.DisplayName,
		u.Profile.PhotoURL, u.Profile.Currency, u.PasswordHash,
		encodeTime(u.Profile.CreatedAt), encodeTime(u.Profile.UpdatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE email = ?`, strings.ToLower(email))
	return scanUser(row.Scan)
}

func (r *Repository) GetUser(ctx context.Context, id string) (UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = ?`, id)
	return scanUser(row.Scan)
}

// ListUserIDs returns every account id. Used by the mirror worker's
// startup reconciliation.
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) UpdateUserProfile(ctx context.Context, p core.UserProfile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET display_name = ?, photo_url = ?, currency = ?, updated_at = ?
		WHERE id = ?`,
		p.DisplayName, p.PhotoURL, p.Currency, encodeTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return mustAffect(res)
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, encodeTime(time.Now()), userID)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return mustAffect(res)
}

func (r *Repository) CreateSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, encodeTime(s.ExpiresAt), encodeTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, token string) (Session, error) {
	var (
		s       Session
		expires string
		created string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, &expires, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	s.ExpiresAt = decodeTime(expires)
	s.CreatedAt = decodeTime(created)
	return s, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions revokes every session for the account, used after a
// password change.
func (r *Repository) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *Repository) CreateResetToken(ctx context.Context, t ResetToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reset_tokens (token, user_id, expires_at, used)
		VALUES (?, ?, ?, 0)`,
		t.Token, t.UserID, encodeTime(t.ExpiresAt))
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

func (r *Repository) GetResetToken(ctx context.Context, token string) (ResetToken, error) {
	var (
		t       ResetToken
		expires string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at, used
		FROM reset_tokens WHERE token = ?`, token).
		Scan(&t.Token, &t.UserID, &expires, &t.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResetToken{}, ErrNotFound
		}
		return ResetToken{}, fmt.Errorf("get reset token: %w", err)
	}
	t.ExpiresAt = decodeTime(expires)
	return t, nil
}

func (r *Repository) MarkResetTokenUsed(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reset_tokens SET used = 1 WHERE token = ? AND used = 0`, token)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	return mustAffect(res)
}

func scanUser(scan func(...any) error) (UserRecord, error) {
	var (
		u       UserRecord
		created string
		updated string
	)
	err := scan(&u.Profile.ID, &u.Profile.Email, &u.Profile.DisplayName,
		&u.Profile.PhotoURL, &u.Profile.Currency, &u.PasswordHash, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserRecord{}, ErrNotFound
		}
		return UserRecord{}, fmt.Errorf("scan user: %w", err)
	}
	u.Profile.CreatedAt = decodeTime(created)
	u.Profile.UpdatedAt = decodeTime(updated)
	return u, nil
}
