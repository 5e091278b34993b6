package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"titulacion/pkg/jwt"
	"titulacion/pkg/response"
)

// Context keys set by JWTAuth
const (
	CtxAccountID   = "account_id"
	CtxRole        = "role"
	CtxIdentityKey = "identity_key"
	CtxTokenJTI    = "token_jti"
	CtxTokenExp    = "token_exp"
)

// TokenParser validates access tokens
type TokenParser interface {
	ParseToken(token string) (*jwt.Claims, error)
}

// Blacklist revoked-token lookup; nil skips the check
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates "Authorization: Bearer <access token>" and injects the
// account into the gin context. A blacklist error lets the request through.
func JWTAuth(tokens TokenParser, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "Falta el encabezado de autenticación")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, 10002, "Encabezado de autenticación inválido")
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, 10002, "Token inválido o expirado")
			c.Abort()
			return
		}
		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Tipo de token inválido")
			c.Abort()
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "La sesión fue cerrada")
				c.Abort()
				return
			}
		}

		c.Set(CtxAccountID, claims.AccountID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxIdentityKey, claims.IdentityKey)
		c.Set(CtxTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth allows only the listed roles
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			response.Unauthorized(c, 10002, "No autenticado")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if role == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "No tiene permiso para acceder")
		c.Abort()
	}
}
