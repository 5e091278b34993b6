package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"titulacion/config"
	"titulacion/internal/dto"
	"titulacion/internal/service"
	"titulacion/pkg/response"
)

// AuthHandler staff and graduate sessions
type AuthHandler struct {
	authSvc service.AuthService
	cookie  refreshCookie
}

// NewAuthHandler creates the AuthHandler; cfg may be nil in tests
func NewAuthHandler(authSvc service.AuthService, cfg *config.AuthConfig) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookie: refreshCookie{cfg: cfg}}
}

// StaffLogin username + password login
// POST /api/v1/auth/staff/login
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	var req dto.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFormError(c, err)
		return
	}

	result, err := h.authSvc.StaffLogin(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.cookie.set(c, result)
	response.OK(c, result)
}

// GraduateLogin CURP + email login
// POST /api/v1/auth/graduate/login
func (h *AuthHandler) GraduateLogin(c *gin.Context) {
	var req dto.GraduateLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFormError(c, err)
		return
	}

	result, err := h.authSvc.GraduateLogin(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.cookie.set(c, result)
	response.OK(c, result)
}

// RefreshToken new token pair from the body token or the cookie
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}
	if token == "" {
		response.Unauthorized(c, 11005, "Falta el refresh token")
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.cookie.set(c, result)
	response.OK(c, result)
}

// Logout revokes the current access token and the refresh token, if any
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := MustGetAccountID(c); !ok {
		return
	}
	refresh, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}
	jti, exp := tokenIdentity(c)

	if err := h.authSvc.Logout(c.Request.Context(), jti, exp, refresh); err != nil {
		response.InternalError(c)
		return
	}

	h.cookie.clear(c)
	response.OK(c, nil)
}

// refreshTokenFrom body first, then cookie. An empty body is fine.
func (h *AuthHandler) refreshTokenFrom(c *gin.Context) (string, bool) {
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeFormError(c, err)
			return "", false
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, true
	}
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil {
		return "", true
	}
	return cookie, true
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, err.Error())
	case errors.Is(err, service.ErrGraduateLogin):
		response.Error(c, http.StatusUnauthorized, 11002, err.Error())
	case errors.Is(err, service.ErrNotStaff):
		response.Forbidden(c, 11003, err.Error())
	case errors.Is(err, service.ErrNotGraduate):
		response.Forbidden(c, 11004, err.Error())
	case errors.Is(err, service.ErrRefreshInvalid):
		response.Unauthorized(c, 11005, err.Error())
	case errors.Is(err, service.ErrTokenRevoked):
		response.Unauthorized(c, 11006, err.Error())
	case errors.Is(err, service.ErrAccountNotFound):
		response.Unauthorized(c, 11007, err.Error())
	default:
		if !writeConfigurationError(c, err) {
			response.InternalError(c)
		}
	}
}
