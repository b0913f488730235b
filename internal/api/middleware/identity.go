package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// LocalUserID is the key to retrieve user_id from context
	LocalUserID = "user_id"

	// HeaderUserID carries the caller-supplied identity
	HeaderUserID = "X-User-ID"

	// AnonymousUser is assigned when no identity header is present
	AnonymousUser = "anonymous"

	maxUserIDLength = 128
)

// Identity resolves the caller identity from the X-User-ID header. There is
// no authentication; the identity only partitions scan history and rate
// limit buckets.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(HeaderUserID))
		if userID == "" {
			userID = AnonymousUser
		}
		if len(userID) > maxUserIDLength {
			userID = userID[:maxUserIDLength]
		}

		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

// GetUserID retrieves the resolved identity from the request context.
func GetUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals(LocalUserID).(string)
	if !ok || userID == "" {
		return AnonymousUser
	}
	return userID
}
