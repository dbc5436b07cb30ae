package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const principalContextKey = "tradepost.principal"

// principal is the authenticated caller identity. Account management
// and session verification live in the upstream gateway; it forwards
// the resolved user id in a trusted header.
type principal struct {
	ID string
}

const identityHeader = "X-User-ID"

type AuthMiddleware struct{}

func (m AuthMiddleware) Handle(c *gin.Context) {
	if id := strings.TrimSpace(c.GetHeader(identityHeader)); id != "" {
		c.Set(principalContextKey, principal{ID: id})
	}
	c.Next()
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// requireUser aborts with 401 when no identity was forwarded.
func requireUser(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok || p.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return principal{}, false
	}
	return p, true
}
