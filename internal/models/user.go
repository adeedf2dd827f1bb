package models

import "time"

// User is owned by the auth subsystem; this service only reads it.
type User struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// UserRef is the sender summary attached to outgoing messages.
type UserRef struct {
	Username string `json:"username"`
}
