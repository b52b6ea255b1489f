package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listhaven/doclife-api/internal/dto"
	"github.com/listhaven/doclife-api/internal/middleware"
	"github.com/listhaven/doclife-api/internal/models"
	appErrors "github.com/listhaven/doclife-api/pkg/errors"
)

type linkageServiceMock struct {
	linkResp    *models.ListingLink
	linkErr     error
	eligible    bool
	unlinkCalls int
}

func (m *linkageServiceMock) Link(ctx context.Context, listingID, consentID string, actor *models.JWTClaims, now time.Time) (*models.ListingLink, error) {
	if m.linkErr != nil {
		return nil, m.linkErr
	}
	return m.linkResp, nil
}

func (m *linkageServiceMock) Unlink(ctx context.Context, listingID, consentID string, actor *models.JWTClaims) error {
	m.unlinkCalls++
	return nil
}

func (m *linkageServiceMock) CountLinks(ctx context.Context, consentID string) (*models.ConsentUsage, error) {
	return &models.ConsentUsage{ConsentID: consentID, Listings: 2}, nil
}

func (m *linkageServiceMock) IsListingEligible(ctx context.Context, listingID string, now time.Time) (*models.ListingEligibility, error) {
	return &models.ListingEligibility{ListingID: listingID, Eligible: m.eligible, CheckedAt: now}, nil
}

func TestLinkageHandlerLinkExpiredConsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &linkageServiceMock{linkErr: appErrors.ErrInvalidConsent}
	handler := NewLinkageHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.LinkListingRequest{ConsentID: "consent-1"})
	req, _ := http.NewRequest(http.MethodPost, "/listings/listing-1/consents", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "listing-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "broker-1", Role: models.RoleBroker})

	handler.Link(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInvalidConsent.Code, envelope.Error.Code)
}

func TestLinkageHandlerLinkMissingConsentID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewLinkageHandler(&linkageServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/listings/listing-1/consents", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "listing-1"}}

	handler.Link(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkageHandlerEligibility(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewLinkageHandler(&linkageServiceMock{eligible: true})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/listings/listing-1/eligibility", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "listing-1"}}

	handler.Eligibility(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.EligibilityResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Eligible)
	assert.Equal(t, "listing-1", envelope.Data.ListingID)
}

func TestLinkageHandlerUnlink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &linkageServiceMock{}
	handler := NewLinkageHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/listings/listing-1/consents/consent-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "listing-1"}, {Key: "consentId", Value: "consent-1"}}

	handler.Unlink(c)
	// Gin defers the status header until a body write or the engine calls
	// WriteHeaderNow; flush it so the recorder sees the handler's status.
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, mock.unlinkCalls)
}
