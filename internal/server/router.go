package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/listening-room/internal/catalog"
	"github.com/listening-room/internal/room"
	"github.com/listening-room/pkg/api"
)

type Deps struct {
	Rooms          *room.Service
	Catalog        *catalog.Catalog
	Log            *logrus.Logger
	AllowedOrigins []string
}

// NewRouter builds the HTTP surface: /health plus everything under /api.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:  d.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	v1 := router.Group("/api")
	room.NewHandler(d.Rooms, d.Log).RegisterRoutes(v1)
	catalog.NewHandler(d.Catalog, d.Rooms, d.Log).RegisterRoutes(v1)

	router.NoRoute(func(c *gin.Context) {
		api.ErrorResponse(c, http.StatusNotFound, "Not found.")
	})
	return router
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Debug("request handled")
		}
	}
}
