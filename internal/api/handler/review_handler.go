package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"titulacion/internal/dto"
	"titulacion/internal/service"
	"titulacion/pkg/response"
	"titulacion/pkg/storage"
)

const (
	statusFieldPrefix = "estado_"
	notesFieldPrefix  = "notas_"
	uploadFieldPrefix = "subir_"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReviewHandler staff review board
type ReviewHandler struct {
	reviewSvc service.ReviewService
	exportSvc service.ExportService
}

// NewReviewHandler creates the ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService, exportSvc service.ExportService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc, exportSvc: exportSvc}
}

// Board graduates in the review stages with their latest documents
// GET /api/v1/review
func (h *ReviewHandler) Board(c *gin.Context) {
	board, err := h.reviewSvc.Board(c.Request.Context())
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OK(c, board)
}

// Submit applies one review form: estado_<id>/notas_<id> per document and
// optional staff uploads subir_<key>
// POST /api/v1/review
func (h *ReviewHandler) Submit(c *gin.Context) {
	values, files, err := parseForm(c)
	if err != nil {
		writeFormError(c, err)
		return
	}

	controlNumber := strings.TrimSpace(values.Get("numero_control"))
	if controlNumber == "" {
		response.BadRequest(c, 10001, "Falta el número de control")
		return
	}

	statuses, err := statusUpdates(values)
	if err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	result, err := h.reviewSvc.SubmitReview(c.Request.Context(), &service.ReviewSubmission{
		ControlNumber: controlNumber,
		Statuses:      statuses,
		Uploads:       uploadsFromForm(files, uploadFieldPrefix),
	})
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, result)
}

// statusUpdates collects estado_<id> fields in id order
func statusUpdates(values url.Values) ([]service.StatusUpdate, error) {
	var updates []service.StatusUpdate
	for field, v := range values {
		if !strings.HasPrefix(field, statusFieldPrefix) || len(v) == 0 {
			continue
		}
		raw := strings.TrimPrefix(field, statusFieldPrefix)
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("identificador de documento inválido: %q", raw)
		}
		updates = append(updates, service.StatusUpdate{
			DocumentID: uint(id),
			Status:     strings.TrimSpace(v[0]),
			Notes:      values[notesFieldPrefix+raw],
		})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].DocumentID < updates[j].DocumentID })
	return updates, nil
}

// BatchAdvance advances every selected graduate one stage
// POST /api/v1/review/batch-advance
func (h *ReviewHandler) BatchAdvance(c *gin.Context) {
	var req dto.BatchAdvanceRequest
	if err := c.ShouldBind(&req); err != nil {
		writeFormError(c, err)
		return
	}
	if len(req.ControlNumbers) == 0 {
		response.OKWithMessage(c, "No se seleccionó ningún egresado", &dto.BatchAdvanceResponse{})
		return
	}

	result, err := h.reviewSvc.BatchAdvance(c.Request.Context(), req.ControlNumbers)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, result)
}

// DocumentFile streams a stored submission
// GET /api/v1/review/documents/:id/file
func (h *ReviewHandler) DocumentFile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, 10001, "Identificador de documento inválido")
		return
	}

	file, err := h.reviewSvc.DocumentFile(c.Request.Context(), uint(id))
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	defer file.Content.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.Content, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename="%s"`, file.Filename),
	})
}

// Export review board as xlsx
// GET /api/v1/review/export
func (h *ReviewHandler) Export(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportBoard(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 13010, service.ErrExportGenerateFail.Error())
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ReviewHandler) handleReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 13001, err.Error())
	case errors.Is(err, service.ErrGraduateNotFound):
		response.NotFound(c, 13002, "El egresado no existe")
	case errors.Is(err, service.ErrDocumentNotFound):
		response.NotFound(c, 13003, err.Error())
	case errors.Is(err, storage.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 12006, err.Error())
	default:
		if !writeConfigurationError(c, err) {
			response.InternalError(c)
		}
	}
}
