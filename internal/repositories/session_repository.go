package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"discussion-service/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository reads session records written by the auth subsystem.
// The same lookup backs the HTTP middleware and the websocket handshake.
type SessionRepository interface {
	Load(ctx context.Context, sessionID string) (models.Session, error)
}

// SessionRepo is a sqlx implementation of SessionRepository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Load fetches a session by id. Expired sessions are reported as not found.
func (r *SessionRepo) Load(ctx context.Context, sessionID string) (models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, `SELECT id, user_id, expires_at, created_at FROM sessions WHERE id=$1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, err
	}
	if session.Expired(time.Now()) {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}
