package handler

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/listhaven/doclife-api/internal/dto"
	appErrors "github.com/listhaven/doclife-api/pkg/errors"
	"github.com/listhaven/doclife-api/pkg/response"
	"github.com/listhaven/doclife-api/pkg/storage"
)

// ContentHandler stores and serves artifact binaries. A blob is uploaded
// first and its key passed as storageRef on submission; downloads go
// through short-lived signed tokens.
type ContentHandler struct {
	artifacts   artifactService
	blobs       *storage.LocalBlobStore
	signer      *storage.SignedURLSigner
	maxBodySize int64
}

// NewContentHandler builds a new handler.
func NewContentHandler(artifacts artifactService, blobs *storage.LocalBlobStore, signer *storage.SignedURLSigner, maxBodySize int64) *ContentHandler {
	if maxBodySize <= 0 {
		maxBodySize = 32 << 20
	}
	return &ContentHandler{artifacts: artifacts, blobs: blobs, signer: signer, maxBodySize: maxBodySize}
}

// Upload godoc
// @Summary Upload an artifact binary
// @Description Stores the file and returns the blob key to use as storageRef.
// @Tags Artifacts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /artifacts/content [post]
func (h *ContentHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	key := uuid.NewString() + filepath.Ext(header.Filename)
	if _, err := h.blobs.PutStream(key, file); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store blob"))
		return
	}

	response.Created(c, gin.H{"storageRef": key, "size": header.Size})
}

// SignedURL godoc
// @Summary Issue a signed download token for an artifact
// @Tags Artifacts
// @Produce json
// @Param id path string true "Artifact ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /artifacts/{id}/content [get]
func (h *ContentHandler) SignedURL(c *gin.Context) {
	snapshot, err := h.artifacts.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	token, expiresAt, err := h.signer.Generate(snapshot.ID, snapshot.StorageRef)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download"))
		return
	}
	response.JSON(c, http.StatusOK, dto.ArtifactContentResponse{
		ArtifactID: snapshot.ID,
		Token:      token,
		ExpiresAt:  expiresAt,
	}, nil)
}

// Download godoc
// @Summary Download an artifact binary by signed token
// @Tags Artifacts
// @Produce application/octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /artifacts/content/{token} [get]
func (h *ContentHandler) Download(c *gin.Context) {
	_, blobKey, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.blobs.Open(blobKey)
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	_ = file.Close()

	c.FileAttachment(h.blobs.Path(blobKey), filepath.Base(blobKey))
}
