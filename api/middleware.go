package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rustyeddy/paperbroker/auth"
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// corsMiddleware admits the single configured frontend origin. Cookies ride
// along, so the origin cannot be a wildcard.
func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requireSession resolves the session cookie and stashes the user on the
// context. Requests without a live session stop here with 401.
func (s *Server) requireSession(c *gin.Context) {
	token, err := c.Cookie(SessionCookie)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
			Code:    http.StatusUnauthorized,
			Message: "not signed in",
		})
		return
	}

	user, err := s.sessions.Get(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
			Code:    http.StatusUnauthorized,
			Message: "session expired",
		})
		return
	}

	c.Set(ctxUser, user)
	c.Next()
}

func currentUser(c *gin.Context) auth.User {
	return c.MustGet(ctxUser).(auth.User)
}
