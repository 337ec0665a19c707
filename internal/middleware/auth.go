package middleware

import (
	"net/http"
	"strings"

	"Lee_Tribe/internal/pkg"

	"github.com/gin-gonic/gin"
)

const ContextAccountIDKey = "account_id"

// AuthMiddleware 只负责从token解出调用方账号注入上下文
// 账号是外部身份体系给的，这里不做任何凭证校验
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			c.Abort()
			return
		}

		claims, err := pkg.ParseAccess(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			c.Abort()
			return
		}
		if claims.AccountID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			c.Abort()
			return
		}

		// 注入 account_id
		c.Set(ContextAccountIDKey, claims.AccountID)
		c.Next()
	}
}
