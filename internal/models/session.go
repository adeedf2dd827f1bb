package models

import "time"

// Session maps an opaque cookie token to a user identity. Rows are written
// by the auth subsystem; the realtime core only reads them.
type Session struct {
	ID        string    `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"userId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
