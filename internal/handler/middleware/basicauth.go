package middleware

import (
	"crypto/subtle"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/checkout-service-api/internal/ierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks the shared machine-to-machine credential. It is an
// interface so the Basic Auth gate can be swapped for token auth without
// touching handlers.
type Authenticator interface {
	Authenticate(username, password string) bool
}

// SharedCredential holds the single admin identity: a username and a bcrypt
// hash of the password.
type SharedCredential struct {
	Username     string
	PasswordHash string
}

var _ Authenticator = (*SharedCredential)(nil)

func (c *SharedCredential) Authenticate(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	return userOK && passOK
}

func BasicAuthMiddleware(auth Authenticator, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("BasicAuthMiddleware")
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			log.Debug("Missing or malformed Basic Auth header")
			c.Header("WWW-Authenticate", `Basic realm="restricted"`)
			_ = c.Error(fmt.Errorf("%w: basic auth required", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		if !auth.Authenticate(username, password) {
			log.Warn("Rejected credentials", zap.String("username", username), zap.String("client_ip", c.ClientIP()))
			c.Header("WWW-Authenticate", `Basic realm="restricted"`)
			_ = c.Error(fmt.Errorf("%w: invalid credentials", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		c.Next()
	}
}
