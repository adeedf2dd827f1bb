package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"discussion-service/internal/models"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrAlreadyMember   = errors.New("already a member")
	ErrInviteCodeTaken = errors.New("invite code already taken")
)

// CreateGroupParams carries the fields of a new group. The invite code is
// generated by the caller; its uniqueness is enforced here by constraint.
type CreateGroupParams struct {
	Name        string
	Description string
	CreatorID   int
	VideoID     *int
	InviteCode  string
	IsPrivate   bool
}

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, params CreateGroupParams) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	GetGroupByInviteCode(ctx context.Context, inviteCode string) (models.Group, error)
	ListGroupsForUser(ctx context.Context, userID int) ([]models.Group, error)
	IsMember(ctx context.Context, groupID int, userID int) (bool, error)
	AddMember(ctx context.Context, groupID int, userID int, role string) error
	MemberIDs(ctx context.Context, groupID int) ([]int, error)
	ListMemberships(ctx context.Context, groupID int) ([]models.Membership, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup inserts the group and the creator's admin membership in one
// transaction, so a group never exists without its admin.
func (r *GroupRepo) CreateGroup(ctx context.Context, params CreateGroupParams) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (name, description, creator_id, video_id, invite_code, is_private)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id, name, description, creator_id, video_id, invite_code, is_private, created_at, updated_at`,
		params.Name, params.Description, params.CreatorID, params.VideoID, params.InviteCode, params.IsPrivate).
		StructScan(&group)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Group{}, ErrInviteCodeTaken
		}
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`,
		group.ID, params.CreatorID, models.RoleAdmin); err != nil {
		return models.Group{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`SELECT id, name, description, creator_id, video_id, invite_code, is_private, created_at, updated_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// GetGroupByInviteCode resolves an invite code to its group.
func (r *GroupRepo) GetGroupByInviteCode(ctx context.Context, inviteCode string) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`SELECT id, name, description, creator_id, video_id, invite_code, is_private, created_at, updated_at FROM groups WHERE invite_code=$1`, inviteCode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// ListGroupsForUser returns groups that include the user.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups,
		`SELECT g.id, g.name, g.description, g.creator_id, g.video_id, g.invite_code, g.is_private, g.created_at, g.updated_at
         FROM groups g INNER JOIN group_members gm ON gm.group_id = g.id
         WHERE gm.user_id=$1 ORDER BY g.created_at DESC`, userID)
	return groups, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// AddMember inserts a membership row. A duplicate (group, user) pair is
// reported as ErrAlreadyMember via the unique constraint.
func (r *GroupRepo) AddMember(ctx context.Context, groupID int, userID int, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`, groupID, userID, role)
	if isUniqueViolation(err) {
		return ErrAlreadyMember
	}
	return err
}

// MemberIDs returns the user ids of all group members.
func (r *GroupRepo) MemberIDs(ctx context.Context, groupID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM group_members WHERE group_id=$1`, groupID)
	return ids, err
}

// ListMemberships returns all membership rows of a group.
func (r *GroupRepo) ListMemberships(ctx context.Context, groupID int) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.db.SelectContext(ctx, &memberships,
		`SELECT group_id, user_id, role, notify, created_at FROM group_members WHERE group_id=$1`, groupID)
	return memberships, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
