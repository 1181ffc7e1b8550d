package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const requesterKey = "requester"

// AuthMiddleware проверяет Bearer токен и сохраняет пользователя в контексте
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				token = strings.TrimSpace(parts[1])
			}
		}
		if token == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		requester, err := ParseToken(secret, token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(requesterKey, requester)
		c.Next()
	}
}

// RequirePrivileged пропускает только администратора и завуча
func RequirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requesterFrom(c).IsPrivileged() {
			fail(c, apperr.Forbidden("administrator or coordinator role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger пишет в лог каждый запрос
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if r, ok := c.Get(requesterKey); ok {
			fields = append(fields, zap.String("requester", r.(model.Requester).Identity()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

func requesterFrom(c *gin.Context) model.Requester {
	v, ok := c.Get(requesterKey)
	if !ok {
		return model.Requester{}
	}
	r, _ := v.(model.Requester)
	return r
}
