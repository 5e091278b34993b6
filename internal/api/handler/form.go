package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"titulacion/internal/api/middleware"
	"titulacion/internal/service"
	pkgerrors "titulacion/pkg/errors"
	"titulacion/pkg/response"
)

// parseForm reads a multipart or urlencoded body. Files is nil for urlencoded.
func parseForm(c *gin.Context) (url.Values, map[string][]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err == nil {
		return url.Values(form.Value), form.File, nil
	}
	if !errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, err
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, nil, err
	}
	return c.Request.PostForm, nil, nil
}

// uploadsFromForm one Upload per file field starting with prefix; the field
// name minus the prefix is the document key. Only the first file of a field counts.
func uploadsFromForm(files map[string][]*multipart.FileHeader, prefix string) []service.Upload {
	fields := make([]string, 0, len(files))
	for field := range files {
		if strings.HasPrefix(field, prefix) && len(files[field]) > 0 {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	uploads := make([]service.Upload, 0, len(fields))
	for _, field := range fields {
		fh := files[field][0]
		uploads = append(uploads, uploadFromHeader(strings.TrimPrefix(field, prefix), fh))
	}
	return uploads
}

func uploadFromHeader(key string, fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Key:      key,
		Filename: fh.Filename,
		Size:     fh.Size,
		Open:     func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// writeFormError 413 for an oversized body, 400 otherwise
func writeFormError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "La solicitud excede el tamaño permitido")
		return
	}
	response.BadRequest(c, 10001, "Parámetros inválidos")
}

// writeConfigurationError 500 naming the missing catalog row so an operator can fix it
func writeConfigurationError(c *gin.Context, err error) bool {
	var cfgErr *pkgerrors.ConfigurationError
	if !errors.As(err, &cfgErr) {
		return false
	}
	response.ErrorWithDetails(c, http.StatusInternalServerError, 50001,
		"Configuración incompleta del sistema", cfgErr.Error())
	return true
}
