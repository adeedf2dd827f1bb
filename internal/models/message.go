package models

import "time"

// VideoMessage is a message in the open discussion of one video.
type VideoMessage struct {
	ID        int       `db:"id" json:"id"`
	VideoID   int       `db:"video_id" json:"videoId"`
	UserID    int       `db:"user_id" json:"userId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	User      *UserRef  `db:"-" json:"user,omitempty"`
}

// GroupMessage is a message scoped to a private group.
type GroupMessage struct {
	ID        int       `db:"id" json:"id"`
	GroupID   int       `db:"group_id" json:"groupId"`
	UserID    int       `db:"user_id" json:"userId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	User      *UserRef  `db:"-" json:"user,omitempty"`
}
