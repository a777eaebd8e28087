package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"nepalmentor/internal/infra/config"
	"nepalmentor/internal/infra/obs"
)

type Handlers struct {
	Chat         ChatHTTP
	Availability AvailabilityHTTP
	Request      RequestHTTP
	WS           WSHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	if h.WS != nil {
		router.GET("/ws", h.WS.Serve)
	}

	api := router.Group("/api/v1")
	if h.Chat != nil {
		api.GET("/chat/:slotId/messages", h.Chat.History)
		api.POST("/chat/messages", h.Chat.Send)
	}
	if h.Availability != nil {
		api.POST("/availability/:userId", h.Availability.AddSlots)
		api.GET("/availability/:userId", h.Availability.ByMentor)
		api.GET("/availability/slot/:slotId", h.Availability.SlotLookup)
		api.PUT("/availability/:userId/slots/:slotId", h.Availability.UpdateSlot)
		api.DELETE("/availability/:userId/slots/:slotId", h.Availability.DeleteSlot)
	}
	if h.Request != nil {
		api.POST("/requests", h.Request.Create)
		api.GET("/requests/mentor/:userId", h.Request.ForMentor)
		api.GET("/requests/mentee/:userId", h.Request.ForMentee)
		api.PUT("/requests/:id", h.Request.UpdateStatus)
		api.DELETE("/requests/:id", h.Request.Delete)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
