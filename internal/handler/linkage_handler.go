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

type linkageService interface {
	Link(ctx context.Context, listingID, consentID string, actor *models.JWTClaims, now time.Time) (*models.ListingLink, error)
	Unlink(ctx context.Context, listingID, consentID string, actor *models.JWTClaims) error
	CountLinks(ctx context.Context, consentID string) (*models.ConsentUsage, error)
	IsListingEligible(ctx context.Context, listingID string, now time.Time) (*models.ListingEligibility, error)
}

// LinkageHandler exposes the listing/consent linkage endpoints.
type LinkageHandler struct {
	service linkageService
}

// NewLinkageHandler builds a new handler.
func NewLinkageHandler(svc linkageService) *LinkageHandler {
	return &LinkageHandler{service: svc}
}

// Link godoc
// @Summary Attach a consent to a listing
// @Tags Listings
// @Accept json
// @Produce json
// @Param id path string true "Listing ID"
// @Param payload body dto.LinkListingRequest true "Link payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /listings/{id}/consents [post]
func (h *LinkageHandler) Link(c *gin.Context) {
	var req dto.LinkListingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ConsentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "consentId is required"))
		return
	}

	link, err := h.service.Link(c.Request.Context(), c.Param("id"), req.ConsentID, claimsFromContext(c), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.LinkListingResponse{
		ListingID: link.ListingID,
		ConsentID: link.ConsentID,
		LinkedAt:  link.LinkedAt,
	})
}

// Unlink godoc
// @Summary Detach a consent from a listing
// @Tags Listings
// @Produce json
// @Param id path string true "Listing ID"
// @Param consentId path string true "Consent ID"
// @Success 204 {object} response.Envelope
// @Router /listings/{id}/consents/{consentId} [delete]
func (h *LinkageHandler) Unlink(c *gin.Context) {
	if err := h.service.Unlink(c.Request.Context(), c.Param("id"), c.Param("consentId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Eligibility godoc
// @Summary Check whether a listing may be published
// @Tags Listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /listings/{id}/eligibility [get]
func (h *LinkageHandler) Eligibility(c *gin.Context) {
	eligibility, err := h.service.IsListingEligible(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.EligibilityResponse{
		ListingID: eligibility.ListingID,
		Eligible:  eligibility.Eligible,
		CheckedAt: eligibility.CheckedAt,
	}, nil)
}

// Usage godoc
// @Summary Count listings relying on a consent
// @Tags Listings
// @Produce json
// @Param id path string true "Consent ID"
// @Success 200 {object} response.Envelope
// @Router /consents/{id}/usage [get]
func (h *LinkageHandler) Usage(c *gin.Context) {
	usage, err := h.service.CountLinks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, usage, nil)
}
