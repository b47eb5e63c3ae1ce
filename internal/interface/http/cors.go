package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, " + requestIDHeader
)

// originPolicy decides which origin the dashboard frontend may call from.
// An empty allow-list or a "*" entry opens the API to every origin.
type originPolicy struct {
	any      bool
	fallback string
	allowed  map[string]string
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]string, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch {
		case o == "":
			continue
		case o == "*":
			p.any = true
		default:
			if p.fallback == "" {
				p.fallback = o
			}
			p.allowed[strings.ToLower(o)] = o
		}
	}
	if p.fallback == "" {
		p.any = true
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for a request origin.
// Unknown origins get the first configured one, which browsers reject.
func (p originPolicy) allow(origin string) string {
	if p.any {
		return "*"
	}
	if origin != "" {
		if _, ok := p.allowed[strings.ToLower(origin)]; ok {
			return origin
		}
	}
	return p.fallback
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	policy := newOriginPolicy(origins)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", policy.allow(c.GetHeader("Origin")))
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Expose-Headers", requestIDHeader)
		if !policy.any {
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
