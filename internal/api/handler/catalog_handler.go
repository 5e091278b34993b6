package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"titulacion/internal/dto"
	"titulacion/internal/service"
	"titulacion/pkg/response"
)

// CatalogHandler stages, taxonomies and staff edits of graduate records
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler creates the CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListStages ordered stage catalog
// GET /api/v1/stages
func (h *CatalogHandler) ListStages(c *gin.Context) {
	response.OK(c, h.catalogSvc.ListStages(c.Request.Context()))
}

// ── plan groups ──

// ListPlanGroups GET /api/v1/plan-groups
func (h *CatalogHandler) ListPlanGroups(c *gin.Context) {
	groups, err := h.catalogSvc.ListPlanGroups(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, groups)
}

// CreatePlanGroup POST /api/v1/plan-groups
func (h *CatalogHandler) CreatePlanGroup(c *gin.Context) {
	var req dto.CreatePlanGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFormError(c, err)
		return
	}

	group, err := h.catalogSvc.CreatePlanGroup(c.Request.Context(), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, group)
}

// CreatePlan POST /api/v1/plan-groups/:id/plans
func (h *CatalogHandler) CreatePlan(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, 10001, "Identificador de grupo inválido")
		return
	}

	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFormError(c, err)
		return
	}

	plan, err := h.catalogSvc.CreatePlan(c.Request.Context(), uint(groupID), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, plan)
}

// ── titling options ──

// ListTitlingOptions GET /api/v1/titling-options
func (h *CatalogHandler) ListTitlingOptions(c *gin.Context) {
	options, err := h.catalogSvc.ListTitlingOptions(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, options)
}

// CreateTitlingOption POST /api/v1/titling-options
func (h *CatalogHandler) CreateTitlingOption(c *gin.Context) {
	var req dto.CreateTitlingOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFormError(c, err)
		return
	}

	option, err := h.catalogSvc.CreateTitlingOption(c.Request.Context(), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, option)
}

// ── graduates ──

// ListGraduates paged search by stage name and free text
// GET /api/v1/graduates?stage=&q=&page=&page_size=
func (h *CatalogHandler) ListGraduates(c *gin.Context) {
	var req dto.GraduateListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parámetros inválidos")
		return
	}

	list, total, err := h.catalogSvc.ListGraduates(c.Request.Context(), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// UpdateGraduate academic attributes of one graduate
// PUT /api/v1/graduates/:control
func (h *CatalogHandler) UpdateGraduate(c *gin.Context) {
	var req dto.UpdateGraduateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFormError(c, err)
		return
	}

	profile, err := h.catalogSvc.UpdateGraduate(c.Request.Context(), c.Param("control"), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, profile)
}

// AdvanceGraduate POST /api/v1/graduates/:control/advance
func (h *CatalogHandler) AdvanceGraduate(c *gin.Context) {
	result, err := h.catalogSvc.AdvanceGraduate(c.Request.Context(), c.Param("control"))
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// RetreatGraduate POST /api/v1/graduates/:control/retreat.
// Retreating from the first stage removes the graduate's account.
func (h *CatalogHandler) RetreatGraduate(c *gin.Context) {
	result, err := h.catalogSvc.RetreatGraduate(c.Request.Context(), c.Param("control"))
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanGroupNotFound):
		response.NotFound(c, 16001, err.Error())
	case errors.Is(err, service.ErrTitlingOptionNotFound):
		response.NotFound(c, 16002, err.Error())
	case errors.Is(err, service.ErrStageNotFound):
		response.NotFound(c, 16003, err.Error())
	case errors.Is(err, service.ErrGraduateNotFound):
		response.NotFound(c, 13002, "El egresado no existe")
	default:
		if !writeConfigurationError(c, err) {
			response.InternalError(c)
		}
	}
}
