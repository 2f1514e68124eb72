package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID extracts a user identifier from the context for rate limit
// and cache key strategies.  JWTAuth stores the numeric "sub" claim
// under "user_id"; unauthenticated requests key as "guest".
func userID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case string:
		if v != "" {
			return v
		}
	}
	return "guest"
}
