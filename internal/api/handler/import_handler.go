package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"titulacion/internal/service"
	"titulacion/pkg/response"
)

// ImportHandler spreadsheet import of graduates
type ImportHandler struct {
	importSvc service.ImportService
}

// NewImportHandler creates the ImportHandler
func NewImportHandler(importSvc service.ImportService) *ImportHandler {
	return &ImportHandler{importSvc: importSvc}
}

// Import reads archivo_excel and creates or updates one graduate per row
// POST /api/v1/graduates/import
func (h *ImportHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("archivo_excel")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			response.BadRequest(c, 14001, "Seleccione un archivo de Excel")
			return
		}
		writeFormError(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 14002, service.ErrImportUnreadable.Error())
		return
	}
	defer f.Close()

	rows, err := h.importSvc.ParseImportFile(f)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	result, err := h.importSvc.Import(c.Request.Context(), rows)
	if err != nil {
		var rowErr *service.ImportRowError
		if errors.As(err, &rowErr) && result != nil {
			response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 14006, rowErr.Error(),
				fmt.Sprintf("importación detenida; creados: %d, actualizados: %d, omitidos: %d",
					result.Created, result.Updated, result.Skipped))
			return
		}
		h.handleImportError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportUnreadable):
		response.BadRequest(c, 14002, err.Error())
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 14003, err.Error())
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 14004, err.Error())
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 14005, err.Error())
	default:
		if !writeConfigurationError(c, err) {
			response.InternalError(c)
		}
	}
}
