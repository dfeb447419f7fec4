package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for user ID.
	UserIDKey = "user_id"
	// UsernameKey is the context key for username.
	UsernameKey = "username"
	// IsAdminKey is the context key for the admin flag.
	IsAdminKey = "is_admin"
)

// Claims is the authenticated identity extracted from an access token.
type Claims struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool
}

// TokenValidator defines the interface for access token validation.
type TokenValidator interface {
	ValidateAccessToken(token string) (*Claims, error)
}

// Auth returns a middleware that validates JWT tokens.
// If the token is valid, it sets user_id and username in the context.
// If optional is true, the middleware will not abort on missing/invalid tokens.
func Auth(validator TokenValidator, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			if !optional {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "UNAUTHORIZED",
						"message": "Authorization header required",
					},
				})
			}
			c.Next()
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			if !optional {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "INVALID_TOKEN",
						"message": "Invalid or expired token",
					},
				})
			}
			c.Next()
			return
		}

		// Set user info in context
		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Set(IsAdminKey, claims.IsAdmin)

		c.Next()
	}
}

// RequireAuth returns a middleware that requires a valid JWT token.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return Auth(validator, false)
}

// OptionalAuth returns a middleware that optionally validates JWT tokens.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return Auth(validator, true)
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}

	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}

	return ""
}

// GetUserID returns the authenticated user ID from context. The second
// return is false for anonymous requests.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	if val, exists := c.Get(UserIDKey); exists {
		if userID, ok := val.(uuid.UUID); ok {
			return userID, true
		}
	}
	return uuid.Nil, false
}

// GetUsername returns the username from context.
// Returns empty string if not found.
func GetUsername(c *gin.Context) string {
	if val, exists := c.Get(UsernameKey); exists {
		if username, ok := val.(string); ok {
			return username
		}
	}
	return ""
}

// IsAuthenticated returns true if the user is authenticated.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := GetUserID(c)
	return ok
}

// IsAdmin returns true if the authenticated user has the admin flag.
func IsAdmin(c *gin.Context) bool {
	if val, exists := c.Get(IsAdminKey); exists {
		if admin, ok := val.(bool); ok {
			return admin
		}
	}
	return false
}
