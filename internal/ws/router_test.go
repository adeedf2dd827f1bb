package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"discussion-service/internal/mocks"
	"discussion-service/internal/models"
	"discussion-service/internal/repositories"
)

func newTestClient(userID int, username string) *Client {
	return &Client{
		send:        make(chan []byte, sendBuffer),
		userID:      userID,
		username:    username,
		connID:      newConnID(),
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// recvEvent pops the next queued event of a test client, or reports none.
func recvEvent(t *testing.T, c *Client) (models.Event, bool) {
	t.Helper()
	select {
	case raw := <-c.send:
		var event models.Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return event, true
	default:
		return models.Event{}, false
	}
}

func newTestRouter(groups *mocks.GroupRepositoryMock, videoMsgs *mocks.VideoMessageRepositoryMock, groupMsgs *mocks.GroupMessageRepositoryMock) (*Router, *Registry) {
	registry := NewRegistry()
	return NewRouter(registry, groups, videoMsgs, groupMsgs), registry
}

func TestDispatchMalformedEnvelope(t *testing.T) {
	router, registry := newTestRouter(new(mocks.GroupRepositoryMock), new(mocks.VideoMessageRepositoryMock), new(mocks.GroupMessageRepositoryMock))
	sender := newTestClient(1, "alice")
	registry.Set(1, sender)

	router.Dispatch(context.Background(), sender, []byte(`{not json`))

	event, ok := recvEvent(t, sender)
	require.True(t, ok)
	require.Equal(t, models.EventError, event.Type)
	require.Equal(t, "invalid message format", event.Message)
}

func TestDispatchUnknownTypeIsNoOpBesidesError(t *testing.T) {
	router, registry := newTestRouter(new(mocks.GroupRepositoryMock), new(mocks.VideoMessageRepositoryMock), new(mocks.GroupMessageRepositoryMock))
	sender := newTestClient(1, "alice")
	other := newTestClient(2, "bob")
	registry.Set(1, sender)
	registry.Set(2, other)

	router.Dispatch(context.Background(), sender, []byte(`{"type":"presence_ping"}`))

	event, ok := recvEvent(t, sender)
	require.True(t, ok)
	require.Equal(t, models.EventError, event.Type)
	require.Equal(t, "unknown message type", event.Message)

	_, ok = recvEvent(t, other)
	require.False(t, ok, "unrecognized envelopes must not reach other connections")
}

func TestVideoMessageBroadcastsToAllConnections(t *testing.T) {
	videoMsgs := new(mocks.VideoMessageRepositoryMock)
	router, registry := newTestRouter(new(mocks.GroupRepositoryMock), videoMsgs, new(mocks.GroupMessageRepositoryMock))

	sender := newTestClient(1, "alice")
	bob := newTestClient(2, "bob")
	carol := newTestClient(3, "carol")
	registry.Set(1, sender)
	registry.Set(2, bob)
	registry.Set(3, carol)

	videoMsgs.On("CreateVideoMessage", mock.Anything, 42, 1, "nice explanation").
		Return(models.VideoMessage{ID: 7, VideoID: 42, UserID: 1, Content: "nice explanation"}, nil).Once()

	router.Dispatch(context.Background(), sender, []byte(`{"type":"message","videoId":42,"content":"nice explanation"}`))

	for _, c := range []*Client{sender, bob, carol} {
		event, ok := recvEvent(t, c)
		require.True(t, ok, "every connection receives the broadcast")
		require.Equal(t, models.EventNewMessage, event.Type)
		data := event.Data.(map[string]any)
		require.Equal(t, "nice explanation", data["content"])
		require.Equal(t, float64(42), data["videoId"])
		require.Equal(t, map[string]any{"username": "alice"}, data["user"])
	}
	videoMsgs.AssertExpectations(t)
}

func TestVideoMessageRequiresVideoIDAndContent(t *testing.T) {
	videoMsgs := new(mocks.VideoMessageRepositoryMock)
	router, registry := newTestRouter(new(mocks.GroupRepositoryMock), videoMsgs, new(mocks.GroupMessageRepositoryMock))
	sender := newTestClient(1, "alice")
	registry.Set(1, sender)

	router.Dispatch(context.Background(), sender, []byte(`{"type":"message","content":"missing video"}`))

	event, ok := recvEvent(t, sender)
	require.True(t, ok)
	require.Equal(t, models.EventError, event.Type)
	videoMsgs.AssertNotCalled(t, "CreateVideoMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVideoMessagePersistenceFailure(t *testing.T) {
	videoMsgs := new(mocks.VideoMessageRepositoryMock)
	router, registry := newTestRouter(new(mocks.GroupRepositoryMock), videoMsgs, new(mocks.GroupMessageRepositoryMock))
	sender := newTestClient(1, "alice")
	other := newTestClient(2, "bob")
	registry.Set(1, sender)
	registry.Set(2, other)

	videoMsgs.On("CreateVideoMessage", mock.Anything, 42, 1, "hello").
		Return(models.VideoMessage{}, context.DeadlineExceeded).Once()

	router.Dispatch(context.Background(), sender, []byte(`{"type":"message","videoId":42,"content":"hello"}`))

	event, ok := recvEvent(t, sender)
	require.True(t, ok)
	require.Equal(t, models.EventError, event.Type)
	require.Equal(t, "failed to save message", event.Message)

	_, ok = recvEvent(t, other)
	require.False(t, ok, "failed persistence must not fan out")
}

func TestGroupMessageFromNonMember(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	groupMsgs := new(mocks.GroupMessageRepositoryMock)
	router, registry := newTestRouter(groups, new(mocks.VideoMessageRepositoryMock), groupMsgs)

	sender := newTestClient(1, "alice")
	member := newTestClient(2, "bob")
	registry.Set(1, sender)
	registry.Set(2, member)

	groups.On("IsMember", mock.Anything, 9, 1).Return(false, nil).Once()

	router.Dispatch(context.Background(), sender, []byte(`{"type":"group_message","groupId":9,"content":"psst"}`))

	event, ok := recvEvent(t, sender)
	require.True(t, ok)
	require.Equal(t, models.EventError, event.Type)
	require.Equal(t, "not a member of this group", event.Message)

	_, ok = recvEvent(t, member)
	require.False(t, ok, "no connection other than the sender may receive anything")
	groupMsgs.AssertNotCalled(t, "CreateGroupMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	groups.AssertExpectations(t)
}

func TestGroupMessageFansOutToMembersOnly(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	groupMsgs := new(mocks.GroupMessageRepositoryMock)
	router, registry := newTestRouter(groups, new(mocks.VideoMessageRepositoryMock), groupMsgs)

	alice := newTestClient(1, "alice")
	bob := newTestClient(2, "bob")
	carol := newTestClient(3, "carol") // connected but not a member
	registry.Set(1, alice)
	registry.Set(2, bob)
	registry.Set(3, carol)

	groups.On("IsMember", mock.Anything, 9, 1).Return(true, nil).Once()
	groupMsgs.On("CreateGroupMessage", mock.Anything, 9, 1, "hello").
		Return(models.GroupMessage{ID: 3, GroupID: 9, UserID: 1, Content: "hello"}, nil).Once()
	groups.On("MemberIDs", mock.Anything, 9).Return([]int{1, 2, 4}, nil).Once()

	router.Dispatch(context.Background(), alice, []byte(`{"type":"group_message","groupId":9,"content":"hello"}`))

	for _, c := range []*Client{alice, bob} {
		event, ok := recvEvent(t, c)
		require.True(t, ok, "members receive the group message")
		require.Equal(t, models.EventNewGroupMessage, event.Type)
		data := event.Data.(map[string]any)
		require.Equal(t, "hello", data["content"])
		require.Equal(t, float64(9), data["groupId"])
	}

	_, ok := recvEvent(t, carol)
	require.False(t, ok, "non-members receive nothing")
	groups.AssertExpectations(t)
	groupMsgs.AssertExpectations(t)
}

func TestGroupMessageSkipsOfflineMembers(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	groupMsgs := new(mocks.GroupMessageRepositoryMock)
	router, registry := newTestRouter(groups, new(mocks.VideoMessageRepositoryMock), groupMsgs)

	alice := newTestClient(1, "alice")
	registry.Set(1, alice)

	groups.On("IsMember", mock.Anything, 9, 1).Return(true, nil).Once()
	groupMsgs.On("CreateGroupMessage", mock.Anything, 9, 1, "hi").
		Return(models.GroupMessage{ID: 4, GroupID: 9, UserID: 1, Content: "hi"}, nil).Once()
	// user 2 is a member but has no registered connection
	groups.On("MemberIDs", mock.Anything, 9).Return([]int{1, 2}, nil).Once()

	router.Dispatch(context.Background(), alice, []byte(`{"type":"group_message","groupId":9,"content":"hi"}`))

	event, ok := recvEvent(t, alice)
	require.True(t, ok)
	require.Equal(t, models.EventNewGroupMessage, event.Type)
}

func TestCreateGroupRepliesToCreatorOnly(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router, registry := newTestRouter(groups, new(mocks.VideoMessageRepositoryMock), new(mocks.GroupMessageRepositoryMock))

	alice := newTestClient(1, "alice")
	bob := newTestClient(2, "bob")
	registry.Set(1, alice)
	registry.Set(2, bob)

	var captured repositories.CreateGroupParams
	groups.On("CreateGroup", mock.Anything, mock.MatchedBy(func(p repositories.CreateGroupParams) bool {
		captured = p
		return p.Name == "Study Buddies" && p.CreatorID == 1 && p.VideoID != nil && *p.VideoID == 42
	})).Return(models.Group{ID: 5, Name: "Study Buddies", CreatorID: 1, InviteCode: "AbCdEfGhIjKl"}, nil).Once()

	router.Dispatch(context.Background(), alice, []byte(`{"type":"create_group","name":"Study Buddies","videoId":42}`))

	event, ok := recvEvent(t, alice)
	require.True(t, ok)
	require.Equal(t, models.EventGroupCreated, event.Type)
	data := event.Data.(map[string]any)
	require.Len(t, data["inviteCode"], 12)

	require.Len(t, captured.InviteCode, 12)

	_, ok = recvEvent(t, bob)
	require.False(t, ok, "only the creator learns about the new group")
	groups.AssertExpectations(t)
}

func TestCreateGroupRetriesOnInviteCodeCollision(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router, registry := newTestRouter(groups, new(mocks.VideoMessageRepositoryMock), new(mocks.GroupMessageRepositoryMock))

	alice := newTestClient(1, "alice")
	registry.Set(1, alice)

	groups.On("CreateGroup", mock.Anything, mock.Anything).
		Return(models.Group{}, repositories.ErrInviteCodeTaken).Once()
	groups.On("CreateGroup", mock.Anything, mock.Anything).
		Return(models.Group{ID: 6, Name: "retry", CreatorID: 1, InviteCode: "ZzYyXxWwVvUu"}, nil).Once()

	router.Dispatch(context.Background(), alice, []byte(`{"type":"create_group","name":"retry"}`))

	event, ok := recvEvent(t, alice)
	require.True(t, ok)
	require.Equal(t, models.EventGroupCreated, event.Type)
	groups.AssertExpectations(t)
}

func TestCreateGroupRequiresName(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router, registry := newTestRouter(groups, new(mocks.VideoMessageRepositoryMock), new(mocks.GroupMessageRepositoryMock))
	alice := newTestClient(1, "alice")
	registry.Set(1, alice)

	router.Dispatch(context.Background(), alice, []byte(`{"type":"create_group"}`))

	event, ok := recvEvent(t, alice)
	require.True(t, ok)
	require.Equal(t, models.EventError, event.Type)
	groups.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything)
}

func TestJoinGroupSuccess(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router, registry := newTestRouter(groups, new(mocks.VideoMessageRepositoryMock), new(mocks.GroupMessageRepositoryMock))

	bob := newTestClient(2, "bob")
	registry.Set(2, bob)

	groups.On("GetGroupByInviteCode", mock.Anything, "AbCdEfGhIjKl").
		Return(models.Group{ID: 5, Name: "Study Buddies", InviteCode: "AbCdEfGhIjKl"}, nil).Once()
	groups.On("AddMember", mock.Anything, 5, 2, models.RoleMember).Return(nil).Once()

	router.Dispatch(context.Background(), bob, []byte(`{"type":"join_group","inviteCode":"AbCdEfGhIjKl"}`))

	event, ok := recvEvent(t, bob)
	require.True(t, ok)
	require.Equal(t, models.EventGroupJoined, event.Type)
	data := event.Data.(map[string]any)
	require.Equal(t, float64(5), data["id"])
	groups.AssertExpectations(t)
}

func TestJoinGroupUnknownInviteCode(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router, registry := newTestRouter(groups, new(mocks.VideoMessageRepositoryMock), new(mocks.GroupMessageRepositoryMock))

	bob := newTestClient(2, "bob")
	registry.Set(2, bob)

	groups.On("GetGroupByInviteCode", mock.Anything, "nope").
		Return(models.Group{}, repositories.ErrGroupNotFound).Once()

	router.Dispatch(context.Background(), bob, []byte(`{"type":"join_group","inviteCode":"nope"}`))

	event, ok := recvEvent(t, bob)
	require.True(t, ok)
	require.Equal(t, models.EventError, event.Type)
	require.Equal(t, "invalid invite code", event.Message)
}

func TestJoinGroupTwiceIsRejected(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router, registry := newTestRouter(groups, new(mocks.VideoMessageRepositoryMock), new(mocks.GroupMessageRepositoryMock))

	bob := newTestClient(2, "bob")
	registry.Set(2, bob)

	groups.On("GetGroupByInviteCode", mock.Anything, "AbCdEfGhIjKl").
		Return(models.Group{ID: 5, InviteCode: "AbCdEfGhIjKl"}, nil).Twice()
	groups.On("AddMember", mock.Anything, 5, 2, models.RoleMember).Return(nil).Once()
	groups.On("AddMember", mock.Anything, 5, 2, models.RoleMember).Return(repositories.ErrAlreadyMember).Once()

	envelope := []byte(`{"type":"join_group","inviteCode":"AbCdEfGhIjKl"}`)
	router.Dispatch(context.Background(), bob, envelope)
	router.Dispatch(context.Background(), bob, envelope)

	first, ok := recvEvent(t, bob)
	require.True(t, ok)
	require.Equal(t, models.EventGroupJoined, first.Type)

	second, ok := recvEvent(t, bob)
	require.True(t, ok)
	require.Equal(t, models.EventError, second.Type)
	require.Equal(t, "already a member of this group", second.Message)
	groups.AssertExpectations(t)
}
