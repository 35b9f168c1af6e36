package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	estimateapp "github.com/estimate/backend/internal/application/estimate"
	"github.com/estimate/backend/internal/infrastructure/imaging"
	"github.com/estimate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultMaxSealUploadBytes bounds a seal upload when no limit is configured
const DefaultMaxSealUploadBytes int64 = 5 << 20

// sealFormField is the multipart field carrying the seal image
const sealFormField = "seal"

// SupplierHandler handles the supplier profile and its seal image
type SupplierHandler struct {
	BaseHandler
	service        *estimateapp.Service
	maxUploadBytes int64
}

// NewSupplierHandler creates a new SupplierHandler. maxUploadBytes <= 0
// uses DefaultMaxSealUploadBytes.
func NewSupplierHandler(service *estimateapp.Service, maxUploadBytes int64) *SupplierHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxSealUploadBytes
	}
	return &SupplierHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// GetSupplier returns the supplier profile
// GET /api/v1/supplier
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	supplier := h.service.Supplier()
	h.Success(c, dto.SupplierResponse{
		CompanyName:   supplier.CompanyName,
		ContactPerson: supplier.ContactPerson,
		Phone:         supplier.Phone,
		SealImage:     supplier.SealImage,
		HasSeal:       supplier.HasSeal(),
	})
}

// SaveSupplier overwrites the supplier profile from the multipart form.
// The stored seal is kept unless a new image is uploaded.
// PUT /api/v1/supplier
func (h *SupplierHandler) SaveSupplier(c *gin.Context) {
	seal, ok := h.readSeal(c, false)
	if !ok {
		return
	}

	result, err := h.service.SaveSupplier(c.Request.Context(), estimateapp.SupplierInput{
		CompanyName:   c.PostForm("company"),
		ContactPerson: c.PostForm("contact_person"),
		Phone:         c.PostForm("phone"),
		SealUpload:    seal,
	})
	if err != nil {
		h.handleSealError(c, err)
		return
	}

	supplier := result.View.Supplier
	h.Success(c, dto.SupplierResponse{
		CompanyName:   supplier.CompanyName,
		ContactPerson: supplier.ContactPerson,
		Phone:         supplier.Phone,
		SealImage:     supplier.SealImage,
		HasSeal:       supplier.HasSeal(),
	})
}

// RemoveSeal drops the stored seal image
// DELETE /api/v1/supplier/seal
func (h *SupplierHandler) RemoveSeal(c *gin.Context) {
	if _, err := h.service.Dispatch(c.Request.Context(), estimateapp.RemoveSealCommand{}, nil); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PreviewSeal processes an uploaded seal and returns it without saving
// POST /api/v1/supplier/seal/preview
func (h *SupplierHandler) PreviewSeal(c *gin.Context) {
	seal, ok := h.readSeal(c, true)
	if !ok {
		return
	}
	uri, err := h.service.PreviewSeal(c.Request.Context(), seal)
	if err != nil {
		h.handleSealError(c, err)
		return
	}
	h.Success(c, dto.SealPreviewResponse{SealImage: uri})
}

// readSeal returns the uploaded seal bytes, nil when no file was sent
func (h *SupplierHandler) readSeal(c *gin.Context, required bool) ([]byte, bool) {
	fh, err := c.FormFile(sealFormField)
	noFile := errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)
	if noFile || (err == nil && fh.Size == 0) {
		if required {
			h.ErrorWithCode(c, dto.ErrCodeValidationRequired, "Seal image file is required")
			return nil, false
		}
		return nil, true
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return nil, false
		}
		h.BadRequest(c, "Invalid multipart form")
		return nil, false
	}
	if fh.Size > h.maxUploadBytes {
		h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge,
			fmt.Sprintf("Seal image exceeds %d bytes", h.maxUploadBytes))
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Cannot read seal image")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		h.BadRequest(c, "Cannot read seal image")
		return nil, false
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge,
			fmt.Sprintf("Seal image exceeds %d bytes", h.maxUploadBytes))
		return nil, false
	}
	return data, true
}

func (h *SupplierHandler) handleSealError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, imaging.ErrImageTooLarge):
		h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, err.Error())
	case errors.Is(err, imaging.ErrUnsupportedImage), errors.Is(err, imaging.ErrEmptyImage):
		h.ErrorWithCode(c, dto.ErrCodeInvalidImage, err.Error())
	default:
		h.HandleError(c, err)
	}
}
