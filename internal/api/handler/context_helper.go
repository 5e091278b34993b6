package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"titulacion/internal/api/middleware"
	"titulacion/pkg/response"
)

// MustGetAccountID extracts the account id injected by JWTAuth.
// On failure it writes a 401 and returns false; the caller just returns.
func MustGetAccountID(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.CtxAccountID)
}

// MustGetRole extracts the role injected by JWTAuth
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.CtxRole)
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "No autenticado")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "No autenticado")
		return "", false
	}
	return s, true
}

// tokenIdentity jti and expiry of the access token in use; zero values when absent
func tokenIdentity(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.CtxTokenJTI)
	var exp time.Time
	if v, ok := c.Get(middleware.CtxTokenExp); ok {
		exp, _ = v.(time.Time)
	}
	return jti, exp
}
