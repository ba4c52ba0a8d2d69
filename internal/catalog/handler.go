package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/listening-room/internal/room"
	"github.com/listening-room/pkg/api"
	"github.com/listening-room/pkg/models"
)

type Handler struct {
	catalog *Catalog
	rooms   *room.Service
	log     logrus.FieldLogger
}

func NewHandler(catalog *Catalog, rooms *room.Service, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{catalog: catalog, rooms: rooms, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	music := r.Group("/music")
	{
		music.GET("/search", h.search)
		music.GET("/recommendations", h.recommendations)
	}
}

func (h *Handler) search(c *gin.Context) {
	api.SuccessResponse(c, http.StatusOK, h.catalog.Search(c.Query("query")))
}

func (h *Handler) recommendations(c *gin.Context) {
	var nowPlaying *models.Song
	if code := c.Query("code"); code != "" {
		rm, err := h.rooms.FetchRoom(c.Request.Context(), code)
		switch {
		case errors.Is(err, room.ErrValidation):
			api.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, room.ErrNotFound):
			api.ErrorResponse(c, http.StatusNotFound, "Room not found.")
			return
		case err != nil:
			h.log.WithError(err).WithField("room_code", code).Error("failed to load room for recommendations")
			api.ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred.")
			return
		}
		nowPlaying = rm.NowPlaying
	}
	api.SuccessResponse(c, http.StatusOK, h.catalog.Recommend(nowPlaying))
}
