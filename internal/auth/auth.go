package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"innbox/internal/config"

	"github.com/labstack/echo/v4"
)

// Manager issues and validates bearer tokens for admin routes
type Manager struct {
	config      *config.Config
	tokens      map[string]time.Time
	mu          sync.RWMutex
	tokenExpiry time.Duration
}

// NewManager creates an authentication manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:      cfg,
		tokens:      make(map[string]time.Time),
		tokenExpiry: 24 * time.Hour,
	}
}

// Authenticate validates credentials and returns a fresh token
func (am *Manager) Authenticate(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(am.config.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(am.config.AdminPassword)) == 1
	if !userOK || !passOK {
		return "", fmt.Errorf("invalid credentials")
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	am.mu.Lock()
	am.tokens[token] = time.Now().Add(am.tokenExpiry)
	am.mu.Unlock()

	go am.cleanupExpiredTokens()

	return token, nil
}

// ValidateToken checks whether a token is known and unexpired
func (am *Manager) ValidateToken(token string) bool {
	am.mu.RLock()
	expiry, exists := am.tokens[token]
	am.mu.RUnlock()

	if !exists {
		return false
	}

	if time.Now().After(expiry) {
		am.mu.Lock()
		delete(am.tokens, token)
		am.mu.Unlock()
		return false
	}

	return true
}

func (am *Manager) cleanupExpiredTokens() {
	am.mu.Lock()
	defer am.mu.Unlock()

	now := time.Now()
	for token, expiry := range am.tokens {
		if now.After(expiry) {
			delete(am.tokens, token)
		}
	}
}

// Middleware rejects requests on admin routes without a valid token. The
// token comes from the Authorization header or a token query parameter.
func Middleware(authManager *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get("Authorization")
			if token != "" {
				token = strings.TrimPrefix(token, "Bearer ")
			} else {
				token = c.QueryParam("token")
			}

			if token == "" || !authManager.ValidateToken(token) {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized. Please login first.",
				})
			}

			c.Set("auth_token", token)

			return next(c)
		}
	}
}
