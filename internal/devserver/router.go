package devserver

import (
	"net/http"
	"time"

	"storefront-realtime/internal/config"
	"storefront-realtime/internal/middleware"
	"storefront-realtime/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BuildRouter assembles the dev backend: namespace websocket endpoints, the
// REST collaborator endpoints the sync engine consumes, token issuing and a
// health probe.
func BuildRouter(cfg *config.Config, hub *Hub, tokens *TokenService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		AllowCredentials: true,
	}))

	handler := NewHandler(hub, tokens)
	for _, ns := range []string{
		socket.NamespaceRoot,
		socket.NamespaceNotifications,
		socket.NamespaceAdminChat,
		socket.NamespaceShopChat,
		socket.NamespaceAIChat,
	} {
		r.GET(ns, handler.HandleNamespace(ns))
	}

	r.POST("/auth/token", issueToken(tokens))
	r.POST("/api/ai/messages", aiMessages())
	r.GET("/health", health(hub, time.Now()))

	return r
}

func issueToken(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID string `json:"userId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing userId"})
			return
		}
		token, err := tokens.Generate(req.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// aiMessages implements the REST send contract the sync engine consumes:
// {data: {id, reply}}.
func aiMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Message string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing message"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data": gin.H{
				"id":    uuid.New().String(),
				"reply": AIReply(req.Message),
			},
		})
	}
}

func health(hub *Hub, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
			"websocket": hub.Stats(),
		})
	}
}
