package models

import "time"

// Membership roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Group is a named, invite-coded discussion room optionally tied to a video.
type Group struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatorID   int       `db:"creator_id" json:"creatorId"`
	VideoID     *int      `db:"video_id" json:"videoId,omitempty"`
	InviteCode  string    `db:"invite_code" json:"inviteCode"`
	IsPrivate   bool      `db:"is_private" json:"isPrivate"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Membership links a user to a group with a role. At most one row exists
// per (group, user) pair, enforced by a unique constraint.
type Membership struct {
	GroupID   int       `db:"group_id" json:"groupId"`
	UserID    int       `db:"user_id" json:"userId"`
	Role      string    `db:"role" json:"role"`
	Notify    bool      `db:"notify" json:"notify"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
