package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trimtrack/internal/domain"
)

var (
	_ domain.UserRepository    = (*DB)(nil)
	_ domain.SessionRepository = (*SessionRepo)(nil)
)

const userColumns = "id, username, password_hash, created_at"

// queryUser returns the single user matched by cond, or nil.
func (d *DB) queryUser(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// GetByUsername matches usernames case-insensitively.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.queryUser(ctx, "LOWER(username) = LOWER($1)", username)
}

func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.queryUser(ctx, "id = $1", id)
}

// Create inserts a user. The LOWER(username) index turns a case-variant of
// an existing name into domain.ErrUsernameTaken.
func (d *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	u := domain.User{Username: username, PasswordHash: passwordHash}
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at",
		username, passwordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err, "") {
		return nil, fmt.Errorf("create %q: %w", username, domain.ErrUsernameTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// SessionRepo stores login sessions in the sessions table.
type SessionRepo struct {
	db *DB
}

func (d *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: d}
}

func (r *SessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if _, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)",
		token, userID, expiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByToken returns the session whether or not it has expired; the caller
// decides. Unknown tokens yield nil.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	s := domain.Session{Token: token}
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT user_id, expires_at, created_at FROM sessions WHERE token = $1", token,
	).Scan(&s.UserID, &s.ExpiresAt, &s.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired prunes sessions past expiry by the database clock.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	if _, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < NOW()"); err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	return nil
}
