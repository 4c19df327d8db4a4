package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/schema"
)

const userColumns = "id, username, password_hash, is_admin, has_completed, completed_at, created_at"

// CreateUser inserts a new account with a random id.
func (s *SurveyStoreImpl) CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (schema.User, error) {
	if _, err := s.GetUserByUsername(ctx, username); err == nil {
		return schema.User{}, contract.NewInputError("username", "already exists: "+username)
	} else if !errors.Is(err, contract.ErrNotFound) {
		return schema.User{}, err
	}

	user := schema.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    s.now().UTC(),
	}
	query := s.q("INSERT INTO %s (id, username, password_hash, is_admin, has_completed, created_at) VALUES (?, ?, ?, ?, ?, ?)", usersTable)
	if _, err := s.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, user.IsAdmin, false, formatTime(user.CreatedAt, s.backend)); err != nil {
		return schema.User{}, contract.NewUpstreamError("create user", err)
	}
	return user, nil
}

// GetUser looks an account up by id.
func (s *SurveyStoreImpl) GetUser(ctx context.Context, id string) (schema.User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+userColumns+" FROM %s WHERE id = ?", usersTable), id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.User{}, contract.NewNotFoundError("user", id)
	}
	if err != nil {
		return schema.User{}, contract.NewUpstreamError("get user", err)
	}
	return user, nil
}

// GetUserByUsername looks an account up by login name.
func (s *SurveyStoreImpl) GetUserByUsername(ctx context.Context, username string) (schema.User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+userColumns+" FROM %s WHERE username = ?", usersTable), username)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.User{}, contract.NewNotFoundError("user", username)
	}
	if err != nil {
		return schema.User{}, contract.NewUpstreamError("get user", err)
	}
	return user, nil
}

// ListUsers returns every account ordered by username.
func (s *SurveyStoreImpl) ListUsers(ctx context.Context) ([]schema.User, error) {
	rows, err := s.db.QueryContext(ctx, s.q("SELECT "+userColumns+" FROM %s ORDER BY username", usersTable))
	if err != nil {
		return nil, contract.NewUpstreamError("list users", err)
	}
	defer func() { _ = rows.Close() }()

	var users []schema.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, contract.NewUpstreamError("scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewUpstreamError("iterate users", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (schema.User, error) {
	var user schema.User
	var completedAt, createdAt dbTime
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.HasCompleted, &completedAt, &createdAt); err != nil {
		return schema.User{}, err
	}
	user.CompletedAt = completedAt.Ptr()
	user.CreatedAt = createdAt.Time
	return user, nil
}

// CreateSession stores a login session.
func (s *SurveyStoreImpl) CreateSession(ctx context.Context, session schema.Session) error {
	query := s.q("INSERT INTO %s (token, user_id, is_admin, expires_at) VALUES (?, ?, ?, ?)", sessionsTable)
	if _, err := s.db.ExecContext(ctx, query, session.Token, session.UserID, session.IsAdmin, formatTime(session.ExpiresAt, s.backend)); err != nil {
		return contract.NewUpstreamError("create session", err)
	}
	return nil
}

// GetSession returns a live session. Expired sessions are removed and reported as not found.
func (s *SurveyStoreImpl) GetSession(ctx context.Context, token string) (schema.Session, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT token, user_id, is_admin, expires_at FROM %s WHERE token = ?", sessionsTable), token)
	var session schema.Session
	var expires dbTime
	if err := row.Scan(&session.Token, &session.UserID, &session.IsAdmin, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.Session{}, contract.NewNotFoundError("session", "")
		}
		return schema.Session{}, contract.NewUpstreamError("get session", err)
	}
	session.ExpiresAt = expires.Time
	if !session.ExpiresAt.After(s.now()) {
		_ = s.DeleteSession(ctx, token)
		return schema.Session{}, contract.NewNotFoundError("session", "")
	}
	return session, nil
}

// DeleteSession removes a session. Missing tokens are ignored.
func (s *SurveyStoreImpl) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, s.q("DELETE FROM %s WHERE token = ?", sessionsTable), token); err != nil {
		return contract.NewUpstreamError("delete session", err)
	}
	return nil
}
