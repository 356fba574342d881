package middleware

import (
	"SmartChat/internal/pkg/security"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthOptionalMiddleware 可选鉴权：令牌有效则以令牌身份为准，
// 否则回退到调用方自报的 userId 查询参数 (与 WS 握手同一信任边界)
func AuthOptionalMiddleware(signer *security.TokenSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		username := c.Query("username")

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if claims, err := signer.Validate(token); err == nil {
				userID = claims.UserID
				username = claims.Username
			}
		}

		c.Set("userId", userID)
		c.Set("username", username)
		c.Next()
	}
}
