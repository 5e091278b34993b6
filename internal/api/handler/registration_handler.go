package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"titulacion/config"
	"titulacion/internal/dto"
	"titulacion/internal/service"
	"titulacion/pkg/response"
	"titulacion/pkg/storage"
)

// RegistrationHandler graduate self-registration
type RegistrationHandler struct {
	registrationSvc service.RegistrationService
	cookie          refreshCookie
}

// NewRegistrationHandler creates the RegistrationHandler
func NewRegistrationHandler(registrationSvc service.RegistrationService, cfg *config.AuthConfig) *RegistrationHandler {
	return &RegistrationHandler{registrationSvc: registrationSvc, cookie: refreshCookie{cfg: cfg}}
}

// Register creates the graduate's account from correo, curp and the identity file "id"
// POST /api/v1/auth/register
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		writeFormError(c, err)
		return
	}

	var identity *service.Upload
	fh, err := c.FormFile("id")
	switch {
	case err == nil:
		up := uploadFromHeader("id", fh)
		identity = &up
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// the service reports the missing file after its lookups
	default:
		writeFormError(c, err)
		return
	}

	result, err := h.registrationSvc.Register(c.Request.Context(), &req, identity)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	h.cookie.set(c, result)
	response.Created(c, result)
}

func (h *RegistrationHandler) handleRegistrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGraduateNotFound):
		response.NotFound(c, 12001, err.Error())
	case errors.Is(err, service.ErrIdentityRegistered):
		response.Conflict(c, 12002, err.Error())
	case errors.Is(err, service.ErrEmailRegistered):
		response.Conflict(c, 12003, err.Error())
	case errors.Is(err, service.ErrIdentityFileRequired):
		response.BadRequest(c, 12004, err.Error())
	case errors.Is(err, service.ErrExtensionNotAllowed):
		response.BadRequest(c, 12005, err.Error())
	case errors.Is(err, storage.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 12006, err.Error())
	default:
		if !writeConfigurationError(c, err) {
			response.InternalError(c)
		}
	}
}
