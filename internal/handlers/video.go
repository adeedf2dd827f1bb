package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"discussion-service/internal/models"
	"discussion-service/internal/repositories"
	"discussion-service/internal/telemetry"
	"discussion-service/internal/ws"
)

// VideoHandler serves the open per-video discussion endpoints. Video
// discussion has no membership: any authenticated user may read and post.
type VideoHandler struct {
	messageRepo repositories.VideoMessageRepository
	userRepo    repositories.UserRepository
	router      *ws.Router
	audit       *telemetry.AuditEmitter
}

// NewVideoHandler constructs a VideoHandler.
func NewVideoHandler(messageRepo repositories.VideoMessageRepository, userRepo repositories.UserRepository, router *ws.Router, audit *telemetry.AuditEmitter) *VideoHandler {
	return &VideoHandler{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		router:      router,
		audit:       audit,
	}
}

// GetVideoMessages returns a video's discussion history, oldest first.
func (h *VideoHandler) GetVideoMessages(c *gin.Context) {
	videoID, err := strconv.Atoi(c.Param("video_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	msgs, err := h.messageRepo.ListVideoMessages(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	usernameByID, err := h.usernames(c, senderIDsOfVideo(msgs))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
		return
	}
	for i := range msgs {
		if name, ok := usernameByID[msgs[i].UserID]; ok {
			msgs[i].User = &models.UserRef{Username: name}
		}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostVideoMessage persists a video message and broadcasts it to all
// connected users, like the websocket path.
func (h *VideoHandler) PostVideoMessage(c *gin.Context) {
	videoID, err := strconv.Atoi(c.Param("video_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	userID := c.GetInt("userID")

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.CreateVideoMessage(c.Request.Context(), videoID, userID, req.Content)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	if user, err := h.userRepo.GetUser(c.Request.Context(), userID); err == nil {
		msg.User = &models.UserRef{Username: user.Username}
	}

	h.router.BroadcastVideoMessage(msg)
	h.emitAudit(c, "INFO", "Video message sent")
	c.JSON(http.StatusCreated, msg)
}

func (h *VideoHandler) usernames(c *gin.Context, ids []int) (map[int]string, error) {
	usernameByID := map[int]string{}
	if len(ids) == 0 {
		return usernameByID, nil
	}
	users, err := h.userRepo.BulkUsers(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		usernameByID[u.ID] = u.Username
	}
	return usernameByID, nil
}

func (h *VideoHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func senderIDsOfVideo(msgs []models.VideoMessage) []int {
	seen := map[int]struct{}{}
	ids := make([]int, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.UserID]; !ok {
			seen[m.UserID] = struct{}{}
			ids = append(ids, m.UserID)
		}
	}
	return ids
}
