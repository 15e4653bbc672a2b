package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://js.stripe.com; " +
	"style-src 'self' 'unsafe-inline'; " +
	"font-src 'self' /public/fonts; " +
	"img-src 'self' /public/icons; " +
	"frame-src https://js.stripe.com;"

// SecurityHeadersMiddleware sets hardening headers on every response. The CSP
// allows the provider's hosted JS so the pricing page can embed checkout.
func SecurityHeadersMiddleware(publicDomain string) gin.HandlerFunc {
	hsts := strings.HasPrefix(publicDomain, "https://")
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Content-Security-Policy", contentSecurityPolicy)
		if hsts {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
