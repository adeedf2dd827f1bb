package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"discussion-service/internal/models"
	"discussion-service/internal/observability"
	"discussion-service/internal/repositories"
)

// how many fresh invite codes to try before giving up on a create_group.
const inviteCodeRetries = 5

// Router validates, persists, and fans out one inbound envelope at a time.
// Failures are contained to the sender: they produce an error event on the
// sender's connection and never affect other connections.
type Router struct {
	registry      *Registry
	groups        repositories.GroupRepository
	videoMessages repositories.VideoMessageRepository
	groupMessages repositories.GroupMessageRepository
}

// NewRouter constructs a Router.
func NewRouter(registry *Registry, groups repositories.GroupRepository, videoMessages repositories.VideoMessageRepository, groupMessages repositories.GroupMessageRepository) *Router {
	return &Router{
		registry:      registry,
		groups:        groups,
		videoMessages: videoMessages,
		groupMessages: groupMessages,
	}
}

// Dispatch interprets one raw envelope from sender. Called from the sender's
// read pump, so envelopes of a single connection are handled strictly in
// receipt order.
func (r *Router) Dispatch(ctx context.Context, sender *Client, raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		observability.IncEnvelope("invalid", "rejected")
		sender.Enqueue(models.ErrorEvent("invalid message format"))
		return
	}

	switch env.Type {
	case models.EnvelopeMessage:
		r.handleVideoMessage(ctx, sender, env)
	case models.EnvelopeGroupMessage:
		r.handleGroupMessage(ctx, sender, env)
	case models.EnvelopeCreateGroup:
		r.handleCreateGroup(ctx, sender, env)
	case models.EnvelopeJoinGroup:
		r.handleJoinGroup(ctx, sender, env)
	default:
		observability.IncEnvelope("unknown", "rejected")
		sender.Enqueue(models.ErrorEvent("unknown message type"))
	}
}

func (r *Router) handleVideoMessage(ctx context.Context, sender *Client, env models.Envelope) {
	if env.VideoID <= 0 || env.Content == "" {
		observability.IncEnvelope(env.Type, "rejected")
		sender.Enqueue(models.ErrorEvent("videoId and content are required"))
		return
	}

	msg, err := r.videoMessages.CreateVideoMessage(ctx, env.VideoID, sender.UserID(), env.Content)
	if err != nil {
		log.Printf("persist video message failed: %v", err)
		observability.IncEnvelope(env.Type, "failed")
		sender.Enqueue(models.ErrorEvent("failed to save message"))
		return
	}
	msg.User = &models.UserRef{Username: sender.Username()}

	// Video discussion is open to every authenticated user, so the event
	// goes to all registered connections.
	r.BroadcastVideoMessage(msg)
	observability.IncEnvelope(env.Type, "ok")
}

func (r *Router) handleGroupMessage(ctx context.Context, sender *Client, env models.Envelope) {
	if env.GroupID <= 0 || env.Content == "" {
		observability.IncEnvelope(env.Type, "rejected")
		sender.Enqueue(models.ErrorEvent("groupId and content are required"))
		return
	}

	member, err := r.groups.IsMember(ctx, env.GroupID, sender.UserID())
	if err != nil {
		log.Printf("membership check failed: %v", err)
		observability.IncEnvelope(env.Type, "failed")
		sender.Enqueue(models.ErrorEvent("could not verify membership"))
		return
	}
	if !member {
		observability.IncEnvelope(env.Type, "unauthorized")
		sender.Enqueue(models.ErrorEvent("not a member of this group"))
		return
	}

	msg, err := r.groupMessages.CreateGroupMessage(ctx, env.GroupID, sender.UserID(), env.Content)
	if err != nil {
		log.Printf("persist group message failed: %v", err)
		observability.IncEnvelope(env.Type, "failed")
		sender.Enqueue(models.ErrorEvent("failed to save message"))
		return
	}
	msg.User = &models.UserRef{Username: sender.Username()}

	if err := r.BroadcastGroupMessage(ctx, msg); err != nil {
		log.Printf("group fan-out failed: %v", err)
	}
	observability.IncEnvelope(env.Type, "ok")
}

func (r *Router) handleCreateGroup(ctx context.Context, sender *Client, env models.Envelope) {
	if env.Name == "" {
		observability.IncEnvelope(env.Type, "rejected")
		sender.Enqueue(models.ErrorEvent("name is required"))
		return
	}

	var videoID *int
	if env.VideoID > 0 {
		v := env.VideoID
		videoID = &v
	}

	group, err := r.CreateGroup(ctx, repositories.CreateGroupParams{
		Name:        env.Name,
		Description: env.Description,
		CreatorID:   sender.UserID(),
		VideoID:     videoID,
		IsPrivate:   env.IsPrivate,
	})
	if err != nil {
		log.Printf("create group failed: %v", err)
		observability.IncEnvelope(env.Type, "failed")
		sender.Enqueue(models.ErrorEvent("failed to create group"))
		return
	}

	// Only the creator learns the invite code.
	sender.Enqueue(models.Event{Type: models.EventGroupCreated, Data: group})
	observability.IncEnvelope(env.Type, "ok")
}

func (r *Router) handleJoinGroup(ctx context.Context, sender *Client, env models.Envelope) {
	if env.InviteCode == "" {
		observability.IncEnvelope(env.Type, "rejected")
		sender.Enqueue(models.ErrorEvent("inviteCode is required"))
		return
	}

	group, err := r.JoinGroup(ctx, env.InviteCode, sender.UserID())
	switch {
	case errors.Is(err, repositories.ErrGroupNotFound):
		observability.IncEnvelope(env.Type, "rejected")
		sender.Enqueue(models.ErrorEvent("invalid invite code"))
		return
	case errors.Is(err, repositories.ErrAlreadyMember):
		observability.IncEnvelope(env.Type, "rejected")
		sender.Enqueue(models.ErrorEvent("already a member of this group"))
		return
	case err != nil:
		log.Printf("join group failed: %v", err)
		observability.IncEnvelope(env.Type, "failed")
		sender.Enqueue(models.ErrorEvent("failed to join group"))
		return
	}

	sender.Enqueue(models.Event{Type: models.EventGroupJoined, Data: group})
	observability.IncEnvelope(env.Type, "ok")
}

// CreateGroup persists a group with a fresh invite code, retrying on the
// rare code collision, and inserts the creator's admin membership in the
// same transaction. Shared by the websocket and HTTP paths.
func (r *Router) CreateGroup(ctx context.Context, params repositories.CreateGroupParams) (models.Group, error) {
	var lastErr error
	for i := 0; i < inviteCodeRetries; i++ {
		code, err := newInviteCode()
		if err != nil {
			return models.Group{}, err
		}
		params.InviteCode = code

		group, err := r.groups.CreateGroup(ctx, params)
		if errors.Is(err, repositories.ErrInviteCodeTaken) {
			lastErr = err
			continue
		}
		return group, err
	}
	return models.Group{}, lastErr
}

// JoinGroup resolves an invite code and adds the user as a member. A
// duplicate join is surfaced as ErrAlreadyMember, not silently accepted.
func (r *Router) JoinGroup(ctx context.Context, inviteCode string, userID int) (models.Group, error) {
	group, err := r.groups.GetGroupByInviteCode(ctx, inviteCode)
	if err != nil {
		return models.Group{}, err
	}
	if err := r.groups.AddMember(ctx, group.ID, userID, models.RoleMember); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// BroadcastVideoMessage fans a persisted video message out to all registered
// connections.
func (r *Router) BroadcastVideoMessage(msg models.VideoMessage) {
	event := models.Event{Type: models.EventNewMessage, Data: msg}
	r.registry.ForEach(func(client *Client) {
		client.Enqueue(event)
	})
	observability.IncWSEvent("new_message")
}

// BroadcastGroupMessage fans a persisted group message out to connections of
// current group members only.
func (r *Router) BroadcastGroupMessage(ctx context.Context, msg models.GroupMessage) error {
	memberIDs, err := r.groups.MemberIDs(ctx, msg.GroupID)
	if err != nil {
		return err
	}

	event := models.Event{Type: models.EventNewGroupMessage, Data: msg}
	for _, id := range memberIDs {
		if client, ok := r.registry.Get(id); ok {
			client.Enqueue(event)
		}
	}
	observability.IncWSEvent("new_group_message")
	return nil
}
