package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/listhaven/doclife-api/internal/models"
	"github.com/listhaven/doclife-api/internal/service"
	"github.com/listhaven/doclife-api/pkg/response"
)

type exportService interface {
	GenerateRegister(ctx context.Context, filter models.ArtifactFilter, format service.ExportFormat, now time.Time) (*service.ExportResult, error)
}

// ExportHandler serves the downloadable document register.
type ExportHandler struct {
	service exportService
}

// NewExportHandler builds a new handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Register godoc
// @Summary Download the document register
// @Description Renders the full register with derived statuses as CSV or PDF.
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param kind query string false "Kind filter"
// @Param ownerId query string false "Owner filter"
// @Success 200 {file} binary
// @Router /exports/register [get]
func (h *ExportHandler) Register(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	filter := models.ArtifactFilter{
		OwnerID: c.Query("ownerId"),
		Kind:    models.ArtifactKind(c.Query("kind")),
	}

	result, err := h.service.GenerateRegister(c.Request.Context(), filter, format, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
