package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	GuestIDHeader  = "X-Guest-Id"
	guestIDKey     = "guest_id"
	guestCookieAge = 30 * 24 * time.Hour
)

// GuestIdentityConfig controls the guest cookie.
type GuestIdentityConfig struct {
	CookieName string
	Secure     bool
}

// GuestIdentity resolves the guest id from the query string, the cookie and
// then the X-Guest-Id header. A missing or malformed id is replaced by a new
// UUID. The cookie is (re)issued on every request so its 30 days slide.
func GuestIdentity(cfg GuestIdentityConfig) gin.HandlerFunc {
	name := cfg.CookieName
	if name == "" {
		name = guestIDKey
	}

	return func(c *gin.Context) {
		id := resolveGuestID(c, name)
		if id == "" {
			id = uuid.New().String()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(name, id, int(guestCookieAge.Seconds()), "/", "", cfg.Secure, true)
		c.Set(guestIDKey, id)
		c.Writer.Header().Set(GuestIDHeader, id)
		c.Next()
	}
}

// GuestID returns the id set by GuestIdentity.
func GuestID(c *gin.Context) string {
	return c.GetString(guestIDKey)
}

func resolveGuestID(c *gin.Context, cookieName string) string {
	candidates := []string{c.Query(guestIDKey)}
	if v, err := c.Cookie(cookieName); err == nil {
		candidates = append(candidates, v)
	}
	candidates = append(candidates, c.GetHeader(GuestIDHeader))

	for _, v := range candidates {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err == nil {
			return v
		}
	}
	return ""
}
