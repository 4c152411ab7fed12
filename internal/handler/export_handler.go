package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/seonlab/studyplan-api/internal/dto"
	"github.com/seonlab/studyplan-api/internal/service"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
	"github.com/seonlab/studyplan-api/pkg/response"
)

type planExporter interface {
	Export(ctx context.Context, planGroupID string, req dto.ExportPlansRequest) (*dto.ExportPlansResponse, error)
	Download(token string) (*os.File, error)
}

// ExportHandler exposes schedule export endpoints.
type ExportHandler struct {
	service planExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Render a plan group's schedule to CSV or PDF
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Plan group ID"
// @Param payload body dto.ExportPlansRequest true "Export payload"
// @Success 201 {object} response.Envelope
// @Router /plan-groups/{id}/export [post]
func (h *ExportHandler) Export(c *gin.Context) {
	var req dto.ExportPlansRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	result, err := h.service.Export(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download a rendered export via its signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, err := h.service.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stat export file"))
		return
	}

	name := filepath.Base(file.Name())
	contentType := "text/csv; charset=utf-8"
	if filepath.Ext(name) == ".pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
