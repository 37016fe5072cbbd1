package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	intakeSubjectContextKey = "intake-subject"
)

// IntakeAuthMiddleware 校验入口令牌；未配置密钥时直接放行
func (h *HTTPHandler) IntakeAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.authManager == nil {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "invalid authorization header format",
			})
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "missing bearer token",
			})
			return
		}

		claims, err := h.authManager.ParseToken(tokenString)
		if err != nil {
			logrus.WithError(err).WithField("client_ip", c.ClientIP()).Warn("rejected intake token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "invalid or expired token",
			})
			return
		}

		c.Set(intakeSubjectContextKey, claims.Subject)
		c.Next()
	}
}

// IntakeSubject 从上下文获取调用方标识
func IntakeSubject(c *gin.Context) string {
	value, exists := c.Get(intakeSubjectContextKey)
	if !exists {
		return ""
	}
	subject, _ := value.(string)
	return subject
}
