package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"titulacion/config"
	"titulacion/internal/dto"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// refreshCookie writes the HttpOnly refresh-token cookie. A nil config writes
// a Lax session cookie.
type refreshCookie struct {
	cfg *config.AuthConfig
}

func (rc refreshCookie) set(c *gin.Context, tokens *dto.TokenResponse) {
	maxAge, secure, domain := 0, false, ""
	sameSite := http.SameSiteLaxMode
	if rc.cfg != nil {
		ttl := rc.cfg.RefreshTokenTTLDefault
		if tokens.RememberMe {
			ttl = rc.cfg.RefreshTokenTTLRemember
		}
		maxAge = int(ttl.Seconds())
		secure = rc.cfg.Cookie.Secure
		domain = rc.cfg.Cookie.Domain
		sameSite = parseSameSite(rc.cfg.Cookie.SameSite)
	}

	c.SetSameSite(sameSite)
	c.SetCookie(refreshCookieName, tokens.RefreshToken, maxAge, refreshCookiePath, domain, secure, true)
	// the browser keeps it in the cookie; JSON clients read Set-Cookie
	tokens.RefreshToken = ""
}

func (rc refreshCookie) clear(c *gin.Context) {
	secure, domain := false, ""
	if rc.cfg != nil {
		secure = rc.cfg.Cookie.Secure
		domain = rc.cfg.Cookie.Domain
	}
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, domain, secure, true)
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
