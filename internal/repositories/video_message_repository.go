package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"discussion-service/internal/models"
)

var ErrEmptyContent = errors.New("empty message content")

// VideoMessageRepository defines interactions for video discussion messages.
type VideoMessageRepository interface {
	CreateVideoMessage(ctx context.Context, videoID int, userID int, content string) (models.VideoMessage, error)
	ListVideoMessages(ctx context.Context, videoID int) ([]models.VideoMessage, error)
}

// VideoMessageRepo is a sqlx-backed implementation.
type VideoMessageRepo struct {
	db *sqlx.DB
}

// NewVideoMessageRepo constructs a VideoMessageRepo.
func NewVideoMessageRepo(db *sqlx.DB) *VideoMessageRepo {
	return &VideoMessageRepo{db: db}
}

// CreateVideoMessage persists a message in a video's open discussion.
func (r *VideoMessageRepo) CreateVideoMessage(ctx context.Context, videoID int, userID int, content string) (models.VideoMessage, error) {
	if content == "" {
		return models.VideoMessage{}, ErrEmptyContent
	}
	var msg models.VideoMessage
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO video_messages (video_id, user_id, content) VALUES ($1, $2, $3)
         RETURNING id, video_id, user_id, content, created_at`,
		videoID, userID, content).StructScan(&msg)
	return msg, err
}

// ListVideoMessages returns a video's messages ordered by creation time,
// id as the stable tie-break.
func (r *VideoMessageRepo) ListVideoMessages(ctx context.Context, videoID int) ([]models.VideoMessage, error) {
	var msgs []models.VideoMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, video_id, user_id, content, created_at FROM video_messages WHERE video_id=$1 ORDER BY created_at ASC, id ASC`, videoID)
	return msgs, err
}
