package middlewares

import (
	t_token "github.com/bhanuudhay/baat-cheet-backend/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	//QueryToken token in query name
	QueryToken = "auth"

	//CookieToken token in cookie name
	CookieToken = "auth_token"

	//AuthToken raw token string, set c.locals name
	AuthToken = "AuthToken"
)

// TokenMiddleware parses the auth token from the query string or cookie
// when present. A missing or invalid token is not rejected here: the
// websocket session accepts an in-band authenticate action, so the
// connection itself must be allowed through unauthenticated.
func TokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Query(QueryToken)
		if tokenStr == "" {
			tokenStr = c.Cookies(CookieToken)
		}
		if tokenStr == "" {
			return c.Next()
		}

		if _, err := t_token.ParseJWT(tokenStr); err != nil {
			return c.Next()
		}

		c.Locals(AuthToken, tokenStr)
		return c.Next()
	}
}
