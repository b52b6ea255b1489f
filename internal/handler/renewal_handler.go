package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/listhaven/doclife-api/internal/dto"
	"github.com/listhaven/doclife-api/internal/models"
	appErrors "github.com/listhaven/doclife-api/pkg/errors"
	"github.com/listhaven/doclife-api/pkg/response"
)

type renewalService interface {
	Sweep(ctx context.Context, now time.Time) (*models.SweepReport, error)
}

// RenewalHandler exposes the manual sweep trigger for operators.
type RenewalHandler struct {
	service renewalService
}

// NewRenewalHandler builds a new handler.
func NewRenewalHandler(svc renewalService) *RenewalHandler {
	return &RenewalHandler{service: svc}
}

// Sweep godoc
// @Summary Run a renewal sweep now
// @Description Scans approved artifacts and raises renewal notices for newly expiring ones.
// @Tags Renewals
// @Accept json
// @Produce json
// @Param payload body dto.SweepRequest false "Optional reference time"
// @Success 200 {object} response.Envelope
// @Router /renewals/sweep [post]
func (h *RenewalHandler) Sweep(c *gin.Context) {
	var req dto.SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sweep payload"))
			return
		}
	}
	now := time.Now().UTC()
	if req.Now != nil {
		now = req.Now.UTC()
	}

	report, err := h.service.Sweep(c.Request.Context(), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
