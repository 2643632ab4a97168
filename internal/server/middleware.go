package server

import (
	"net/http"
	"strings"

	"hackathon-portal/internal/auth"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// requireCapability authenticates the bearer token and checks the principal's
// role against the permission table.
func (s *Server) requireCapability(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.Request)
		if raw == "" {
			writeError(c, http.StatusUnauthorized, "unauthorized", "Authentication required.")
			c.Abort()
			return
		}
		p, err := s.issuer.Parse(raw)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token.")
			c.Abort()
			return
		}
		if !p.Can(capability) {
			writeError(c, http.StatusForbidden, "forbidden", "Insufficient permissions.")
			c.Abort()
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func principal(c *gin.Context) auth.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Principal{}
}

// bearerToken reads the Authorization header, falling back to the token query
// parameter for websocket clients that cannot set headers.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
