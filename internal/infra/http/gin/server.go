package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"tradepost/internal/infra/config"
	"tradepost/internal/infra/obs"
)

type ChatHTTP interface {
	CreateConversation(c *gin.Context)
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
}

type TradeHTTP interface {
	CreateListing(c *gin.Context)
	GetListing(c *gin.Context)
	UpdateListing(c *gin.Context)
	Reserve(c *gin.Context)
	Release(c *gin.Context)
	MakeOffer(c *gin.Context)
	MyOffer(c *gin.Context)
	AcceptOffer(c *gin.Context)
	DeclineOffer(c *gin.Context)
}

type NotificationHTTP interface {
	List(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkAllRead(c *gin.Context)
}

type BlockHTTP interface {
	Create(c *gin.Context)
	Delete(c *gin.Context)
	List(c *gin.Context)
}

type Handlers struct {
	Chat           ChatHTTP
	Trade          TradeHTTP
	Notification   NotificationHTTP
	Block          BlockHTTP
	AuthMiddleware gin.HandlerFunc
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
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Chat != nil {
		api.POST("/conversations", h.Chat.CreateConversation)
		api.GET("/conversations/:id/messages", h.Chat.ListMessages)
		api.POST("/conversations/:id/messages", h.Chat.SendMessage)
	}
	if h.Trade != nil {
		api.POST("/products", h.Trade.CreateListing)
		api.GET("/products/:id", h.Trade.GetListing)
		api.PUT("/products/:id", h.Trade.UpdateListing)
		api.POST("/products/:id/reserve", h.Trade.Reserve)
		api.POST("/products/:id/release", h.Trade.Release)
		api.POST("/products/:id/offers", h.Trade.MakeOffer)
		api.GET("/products/:id/offers/my", h.Trade.MyOffer)
		api.POST("/products/:id/offers/:buyer/accept", h.Trade.AcceptOffer)
		api.POST("/products/:id/offers/:buyer/decline", h.Trade.DeclineOffer)
	}
	if h.Notification != nil {
		api.GET("/notifications", h.Notification.List)
		api.POST("/notifications/:id/read", h.Notification.MarkRead)
		api.POST("/notifications/read-all", h.Notification.MarkAllRead)
	}
	if h.Block != nil {
		api.POST("/blocks", h.Block.Create)
		api.DELETE("/blocks/:user_id", h.Block.Delete)
		api.GET("/blocks", h.Block.List)
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
