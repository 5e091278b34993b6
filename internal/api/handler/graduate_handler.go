package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"titulacion/internal/dto"
	"titulacion/internal/service"
	"titulacion/pkg/response"
	"titulacion/pkg/storage"
)

// graduateHome where a failed generation sends the graduate back to
const graduateHome = "/api/v1/graduate"

// GraduateHandler the graduate's own portal
type GraduateHandler struct {
	graduateSvc  service.GraduateService
	generatorSvc service.GeneratorService
}

// NewGraduateHandler creates the GraduateHandler
func NewGraduateHandler(graduateSvc service.GraduateService, generatorSvc service.GeneratorService) *GraduateHandler {
	return &GraduateHandler{graduateSvc: graduateSvc, generatorSvc: generatorSvc}
}

// Dashboard current stage, requirements and latest submissions
// GET /api/v1/graduate
func (h *GraduateHandler) Dashboard(c *gin.Context) {
	accountID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	result, err := h.graduateSvc.Dashboard(c.Request.Context(), accountID)
	if err != nil {
		h.handleGraduateError(c, err)
		return
	}

	response.OK(c, result)
}

// Upload stores the posted documents; each file field is a document key
// POST /api/v1/graduate/documents
func (h *GraduateHandler) Upload(c *gin.Context) {
	accountID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		writeFormError(c, err)
		return
	}

	result, err := h.graduateSvc.Upload(c.Request.Context(), accountID, uploadsFromForm(form.File, ""))
	if err != nil {
		h.handleGraduateError(c, err)
		return
	}

	response.OK(c, result)
}

// Profile full graduate record
// GET /api/v1/graduate/profile
func (h *GraduateHandler) Profile(c *gin.Context) {
	accountID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	result, err := h.graduateSvc.Profile(c.Request.Context(), accountID)
	if err != nil {
		h.handleGraduateError(c, err)
		return
	}

	response.OK(c, result)
}

// Generate renders the requested document as a download.
// An unknown clave_documento redirects back to the dashboard.
// POST /api/v1/graduate/generate
func (h *GraduateHandler) Generate(c *gin.Context) {
	accountID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	var req dto.GenerateDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		writeFormError(c, err)
		return
	}

	doc, err := h.generatorSvc.Generate(c.Request.Context(), accountID, req.Key)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownDocumentKind):
			response.SeeOther(c, 15001, service.ErrUnknownDocumentKind.Error(), graduateHome)
		case errors.Is(err, service.ErrNoGraduateForLogin):
			response.NotFound(c, 15002, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

func (h *GraduateHandler) handleGraduateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoFiles):
		response.BadRequest(c, 17001, err.Error())
	case errors.Is(err, service.ErrUnknownDocumentType):
		response.BadRequest(c, 17002, err.Error())
	case errors.Is(err, service.ErrExtensionNotAllowed):
		response.BadRequest(c, 17003, err.Error())
	case errors.Is(err, service.ErrNoGraduateForLogin):
		response.NotFound(c, 17004, err.Error())
	case errors.Is(err, storage.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 17005, err.Error())
	default:
		if !writeConfigurationError(c, err) {
			response.InternalError(c)
		}
	}
}
