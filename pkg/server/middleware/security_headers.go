// Package middleware holds gin middleware shared by the advertise server.
package middleware

import (
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// DefaultContentSecurityPolicy allows nothing: the server only returns JSON and text.
const DefaultContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders sets the usual hardening headers. An empty csp uses DefaultContentSecurityPolicy.
func SecurityHeaders(csp string, development bool) gin.HandlerFunc {
	if csp == "" {
		csp = DefaultContentSecurityPolicy
	}
	return secure.New(secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: csp,
		ReferrerPolicy:        "no-referrer",
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		IsDevelopment:         development,
	})
}

// RequestLogger logs every request through zerolog.
func RequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	event := log.Debug()
	if c.Writer.Status() >= 500 {
		event = log.Error()
	}
	event.
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("latency", time.Since(start)).
		Msg("Request served")
}
