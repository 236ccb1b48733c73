package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is the request id header honoured on the way in and echoed on
// the way out.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware tags each request with an id. An incoming X-Request-ID is
// kept so ids survive proxies; otherwise a fresh UUID is assigned.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the request id stored in the Gin context, or "".
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
