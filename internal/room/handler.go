package room

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/listening-room/pkg/api"
	"github.com/listening-room/pkg/models"
)

type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	rooms := r.Group("/rooms")
	{
		rooms.POST("", h.createRoom)
		rooms.GET("/:code", h.getRoom)
		rooms.GET("/:code/version", h.getVersion)
		rooms.POST("/:code/heartbeat", h.heartbeat)
		rooms.POST("/:code/users", h.addUser)
		rooms.POST("/:code/playback/next", h.playNext)
		rooms.POST("/:code/playback/previous", h.playPrevious)
		rooms.POST("/:code/queue", h.addSong)
		rooms.POST("/:code/queue/:songId/vote", h.vote)
		rooms.POST("/:code/queue/:songId/downvote", h.downvote)
		rooms.POST("/:code/chat", h.sendChat)
		rooms.POST("/:code/chat/:messageId/react", h.react)
	}
}

type HeartbeatRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type ChatRequest struct {
	Text string      `json:"text" binding:"required"`
	User models.User `json:"user"`
}

type ReactRequest struct {
	Emoji string      `json:"emoji" binding:"required"`
	User  models.User `json:"user"`
}

type VersionResponse struct {
	Version int64 `json:"version"`
}

func (h *Handler) createRoom(c *gin.Context) {
	room, err := h.service.CreateRoom(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, room)
}

func (h *Handler) getRoom(c *gin.Context) {
	room, err := h.service.FetchRoom(c.Request.Context(), c.Param("code"))
	h.respond(c, room, err)
}

func (h *Handler) getVersion(c *gin.Context) {
	version, err := h.service.FetchVersion(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, VersionResponse{Version: version})
}

func (h *Handler) heartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ErrorResponse(c, http.StatusBadRequest, "User ID is required.")
		return
	}
	if err := h.service.Heartbeat(c.Request.Context(), c.Param("code"), req.UserID); err != nil {
		h.fail(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, nil)
}

func (h *Handler) addUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		api.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	room, err := h.service.AddOrRefreshUser(c.Request.Context(), c.Param("code"), user)
	h.respond(c, room, err)
}

func (h *Handler) playNext(c *gin.Context) {
	room, err := h.service.PlayNext(c.Request.Context(), c.Param("code"))
	h.respond(c, room, err)
}

func (h *Handler) playPrevious(c *gin.Context) {
	room, err := h.service.PlayPrevious(c.Request.Context(), c.Param("code"))
	h.respond(c, room, err)
}

func (h *Handler) addSong(c *gin.Context) {
	var req models.SongInput
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	room, err := h.service.AddSong(c.Request.Context(), c.Param("code"), req)
	h.respond(c, room, err)
}

func (h *Handler) vote(c *gin.Context) {
	room, err := h.service.Vote(c.Request.Context(), c.Param("code"), c.Param("songId"))
	h.respond(c, room, err)
}

func (h *Handler) downvote(c *gin.Context) {
	room, err := h.service.Downvote(c.Request.Context(), c.Param("code"), c.Param("songId"))
	h.respond(c, room, err)
}

func (h *Handler) sendChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	room, err := h.service.SendChatMessage(c.Request.Context(), c.Param("code"), req.Text, req.User)
	h.respond(c, room, err)
}

func (h *Handler) react(c *gin.Context) {
	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	room, err := h.service.ReactToMessage(c.Request.Context(), c.Param("code"), c.Param("messageId"), req.Emoji, req.User)
	h.respond(c, room, err)
}

func (h *Handler) respond(c *gin.Context, room *models.Room, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, room)
}

// fail maps service errors onto status codes. Only unexpected failures are
// logged; their detail stays out of the response.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		api.ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		api.ErrorResponse(c, http.StatusNotFound, "Room not found.")
	case errors.Is(err, ErrAllocationExhausted):
		h.log.WithError(err).Error("room creation failed")
		api.ErrorResponse(c, http.StatusInternalServerError, "Could not create a room. Please try again.")
	default:
		h.log.WithError(err).WithField("room_code", c.Param("code")).Error("room operation failed")
		api.ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
