package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// ViewerKey holds the authenticated user id (uint) in the gin context.
	ViewerKey = "viewer_id"
	// SessionUserKey is the session field written by the auth service.
	SessionUserKey = "user_id"
	UserIDHeader   = "X-User-ID"
)

// LoadViewer resolves the caller's user id from the session, or from the
// X-User-ID header when trustHeader is set. Anonymous callers pass through.
func LoadViewer(trustHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := sessionUserID(sessions.Default(c).Get(SessionUserKey)); id != 0 {
			c.Set(ViewerKey, id)
		} else if trustHeader {
			if id, err := strconv.ParseUint(c.GetHeader(UserIDHeader), 10, 64); err == nil && id != 0 {
				c.Set(ViewerKey, uint(id))
			}
		}
		c.Next()
	}
}

// AuthRequired rejects anonymous callers. LoadViewer must run first.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ViewerID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"code":  "unauthenticated",
			})
			return
		}
		c.Next()
	}
}

// ViewerID returns 0 for anonymous callers.
func ViewerID(c *gin.Context) uint {
	if v, ok := c.Get(ViewerKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func sessionUserID(v any) uint {
	switch id := v.(type) {
	case uint:
		return id
	case int:
		if id > 0 {
			return uint(id)
		}
	case int64:
		if id > 0 {
			return uint(id)
		}
	case uint64:
		return uint(id)
	case string:
		if n, err := strconv.ParseUint(id, 10, 64); err == nil {
			return uint(n)
		}
	}
	return 0
}
