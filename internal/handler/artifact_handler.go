package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/listhaven/doclife-api/internal/dto"
	"github.com/listhaven/doclife-api/internal/models"
	"github.com/listhaven/doclife-api/internal/repository"
	"github.com/listhaven/doclife-api/internal/service"
	appErrors "github.com/listhaven/doclife-api/pkg/errors"
	"github.com/listhaven/doclife-api/pkg/response"
)

type artifactService interface {
	Submit(ctx context.Context, req dto.SubmitArtifactRequest, actor *models.JWTClaims) (*models.Artifact, error)
	Decide(ctx context.Context, id string, req dto.DecideArtifactRequest, actor *models.JWTClaims, now time.Time) (*models.Artifact, error)
	Withdraw(ctx context.Context, id string, actor *models.JWTClaims, now time.Time) (*models.Artifact, error)
	Renew(ctx context.Context, id string, req dto.RenewArtifactRequest, actor *models.JWTClaims) (*models.Artifact, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims, now time.Time) (*models.ArtifactSnapshot, error)
	GetStatus(ctx context.Context, id string, now time.Time) (*dto.ArtifactStatusResponse, error)
	List(ctx context.Context, query dto.ArtifactQuery, actor *models.JWTClaims, now time.Time) ([]models.ArtifactSnapshot, error)
}

// ArtifactHandler exposes the submission, approval and lifecycle endpoints.
type ArtifactHandler struct {
	service  artifactService
	cache    *repository.CacheRepository
	metrics  *service.MetricsService
	cacheTTL time.Duration
}

// NewArtifactHandler builds a new handler. Cache and metrics are optional.
func NewArtifactHandler(svc artifactService, cache *repository.CacheRepository, metrics *service.MetricsService, cacheTTL time.Duration) *ArtifactHandler {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &ArtifactHandler{service: svc, cache: cache, metrics: metrics, cacheTTL: cacheTTL}
}

// Submit godoc
// @Summary Submit a new artifact
// @Tags Artifacts
// @Accept json
// @Produce json
// @Param payload body dto.SubmitArtifactRequest true "Artifact payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /artifacts [post]
func (h *ArtifactHandler) Submit(c *gin.Context) {
	var req dto.SubmitArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid artifact payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims != nil && claims.Role != models.RoleAdmin {
		req.OwnerID = claims.UserID
	}

	artifact, err := h.service.Submit(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, artifact)
}

// List godoc
// @Summary List artifacts with derived status
// @Tags Artifacts
// @Produce json
// @Param ownerId query string false "Owner filter"
// @Param kind query string false "Kind filter"
// @Param subject query string false "Subject name filter"
// @Success 200 {object} response.Envelope
// @Router /artifacts [get]
func (h *ArtifactHandler) List(c *gin.Context) {
	var query dto.ArtifactQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	snapshots, err := h.service.List(c.Request.Context(), query, claimsFromContext(c), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshots, nil)
}

// Get godoc
// @Summary Get one artifact with derived status
// @Tags Artifacts
// @Produce json
// @Param id path string true "Artifact ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /artifacts/{id} [get]
func (h *ArtifactHandler) Get(c *gin.Context) {
	snapshot, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Status godoc
// @Summary Get the derived lifecycle status of an artifact
// @Tags Artifacts
// @Produce json
// @Param id path string true "Artifact ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /artifacts/{id}/status [get]
func (h *ArtifactHandler) Status(c *gin.Context) {
	id := c.Param("id")
	key := statusCacheKey(id)

	if h.cache != nil {
		start := time.Now()
		var cached dto.ArtifactStatusResponse
		err := h.cache.Get(c.Request.Context(), key, &cached)
		if h.metrics != nil {
			h.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			response.JSON(c, http.StatusOK, cached, nil, map[string]interface{}{"cache_hit": true})
			return
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			response.Error(c, err)
			return
		}
	}

	status, err := h.service.GetStatus(c.Request.Context(), id, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.cache != nil {
		_ = h.cache.Set(c.Request.Context(), key, status, h.cacheTTL)
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Decide godoc
// @Summary Record a reviewer decision
// @Tags Artifacts
// @Accept json
// @Produce json
// @Param id path string true "Artifact ID"
// @Param payload body dto.DecideArtifactRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /artifacts/{id}/decision [post]
func (h *ArtifactHandler) Decide(c *gin.Context) {
	var req dto.DecideArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	artifact, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claimsFromContext(c), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateStatus(c, artifact.ID)
	response.JSON(c, http.StatusOK, artifact, nil)
}

// Withdraw godoc
// @Summary Withdraw a pending artifact
// @Tags Artifacts
// @Produce json
// @Param id path string true "Artifact ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /artifacts/{id}/withdraw [post]
func (h *ArtifactHandler) Withdraw(c *gin.Context) {
	artifact, err := h.service.Withdraw(c.Request.Context(), c.Param("id"), claimsFromContext(c), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateStatus(c, artifact.ID)
	response.JSON(c, http.StatusOK, artifact, nil)
}

// Renew godoc
// @Summary Submit a successor for an approved artifact
// @Tags Artifacts
// @Accept json
// @Produce json
// @Param id path string true "Artifact ID"
// @Param payload body dto.RenewArtifactRequest true "Renewal payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /artifacts/{id}/renew [post]
func (h *ArtifactHandler) Renew(c *gin.Context) {
	var req dto.RenewArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid renewal payload"))
		return
	}

	successor, err := h.service.Renew(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, successor)
}

func (h *ArtifactHandler) invalidateStatus(c *gin.Context, id string) {
	if h.cache == nil {
		return
	}
	_ = h.cache.DeleteByPattern(c.Request.Context(), statusCacheKey(id))
}

func statusCacheKey(id string) string {
	return fmt.Sprintf("artifact:status:%s", id)
}
