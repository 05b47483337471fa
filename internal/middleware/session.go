package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/mealbrowser/internal/service"
)

// SessionCookie names the cookie identifying one browser
const SessionCookie = "mb_session"

const sessionMaxAge = 30 * 24 * 60 * 60

// Session makes sure every request carries a browser session id and stores it
// on the request context
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, sessionMaxAge, "/", "", false, true)
		}
		c.Set("session_id", id)
		c.Request = c.Request.WithContext(service.ContextWithSession(c.Request.Context(), id))
		c.Next()
	}
}
