package api

import (
	"SmartChat/internal/api/middleware"
	"SmartChat/internal/pkg/logger"
	"SmartChat/internal/pkg/security"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, signer *security.TokenSigner) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		apiGroup.GET("/stats", group.ChatHandler.Stats)
		apiGroup.POST("/auth/token", group.ChatHandler.IssueToken)

		// 实时通道：身份在握手查询参数或 token 中
		apiGroup.GET("/chat", group.WSHandler.Connect)

		chatGroup := apiGroup.Group("/chat")
		chatGroup.Use(middleware.AuthOptionalMiddleware(signer))
		{
			chatGroup.DELETE("/direct/:otherUserId", group.ChatHandler.DeleteDirectChat)
		}
	}

	return r
}
