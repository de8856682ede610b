package api

import (
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strings"
	"time"
)

const (
	sessionKey = "session"
	tokenKey   = "token"
)

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		})

		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
		} else {
			entry.Debug("request processed")
		}
	}
}

func authMiddleware(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		session, ok := sessions.Get(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(sessionKey, session)
		c.Set(tokenKey, token)
		c.Next()
	}
}

func currentSession(c *gin.Context) models.Session {
	return c.MustGet(sessionKey).(models.Session)
}
