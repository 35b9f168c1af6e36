package handler

import (
	"image/color"
	"net/http"
	"strings"
	"testing"

	"github.com/estimate/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSupplierApp(t *testing.T, maxUpload int64) *testApp {
	app := newTestApp(t)
	h := NewSupplierHandler(app.service, maxUpload)
	api := app.engine.Group("/api/v1/supplier")
	api.GET("", h.GetSupplier)
	api.PUT("", h.SaveSupplier)
	api.DELETE("/seal", h.RemoveSeal)
	api.POST("/seal/preview", h.PreviewSeal)
	return app
}

func TestNewSupplierHandler_DefaultLimit(t *testing.T) {
	h := NewSupplierHandler(nil, 0)
	assert.Equal(t, DefaultMaxSealUploadBytes, h.maxUploadBytes)
}

func TestSupplierHandler_SaveWithSeal(t *testing.T) {
	app := newSupplierApp(t, 0)
	fields := map[string]string{"company": "ACME", "contact_person": "김철수", "phone": "010-1234-5678"}

	w := app.doRaw(multipartRequest(t, "PUT", "/api/v1/supplier", fields, pngBytes(t, 4, 4, color.White)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var supplier dto.SupplierResponse
	decode(t, w, &supplier)
	assert.Equal(t, "ACME", supplier.CompanyName)
	assert.Equal(t, "김철수", supplier.ContactPerson)
	assert.True(t, supplier.HasSeal)
	assert.True(t, strings.HasPrefix(supplier.SealImage, "data:image/png;base64,"))

	seal, ok, err := app.store.Get(t.Context(), "sealImage")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, supplier.SealImage, seal)

	// saving again without a file keeps the seal
	w = app.doRaw(multipartRequest(t, "PUT", "/api/v1/supplier", map[string]string{"company": "ACME 2"}, nil))
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &supplier)
	assert.Equal(t, "ACME 2", supplier.CompanyName)
	assert.Equal(t, "", supplier.Phone)
	assert.True(t, supplier.HasSeal)
}

func TestSupplierHandler_RemoveSeal(t *testing.T) {
	app := newSupplierApp(t, 0)
	app.doRaw(multipartRequest(t, "PUT", "/api/v1/supplier", map[string]string{"company": "ACME"}, pngBytes(t, 2, 2, color.Black)))

	w := app.do("DELETE", "/api/v1/supplier/seal", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do("GET", "/api/v1/supplier", nil)
	var supplier dto.SupplierResponse
	decode(t, w, &supplier)
	assert.False(t, supplier.HasSeal)
	assert.Empty(t, supplier.SealImage)
	assert.Equal(t, "ACME", supplier.CompanyName)

	_, ok, err := app.store.Get(t.Context(), "sealImage")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSupplierHandler_PreviewDoesNotSave(t *testing.T) {
	app := newSupplierApp(t, 0)

	w := app.doRaw(multipartRequest(t, "POST", "/api/v1/supplier/seal/preview", nil, pngBytes(t, 3, 3, color.White)))

	require.Equal(t, http.StatusOK, w.Code)
	var preview dto.SealPreviewResponse
	decode(t, w, &preview)
	assert.True(t, strings.HasPrefix(preview.SealImage, "data:image/png;base64,"))
	assert.False(t, app.service.Supplier().HasSeal())
}

func TestSupplierHandler_UploadErrors(t *testing.T) {
	app := newSupplierApp(t, 64)

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
		code   string
	}{
		{
			name:   "preview without file",
			req:    func() *http.Request { return multipartRequest(t, "POST", "/api/v1/supplier/seal/preview", nil, nil) },
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidationRequired,
		},
		{
			name: "not an image",
			req: func() *http.Request {
				return multipartRequest(t, "PUT", "/api/v1/supplier", map[string]string{"company": "x"}, []byte("plain text"))
			},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeInvalidImage,
		},
		{
			name: "upload over the limit",
			req: func() *http.Request {
				return multipartRequest(t, "PUT", "/api/v1/supplier", nil, []byte(strings.Repeat("x", 100)))
			},
			status: http.StatusRequestEntityTooLarge,
			code:   dto.ErrCodeRequestTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.doRaw(tt.req())
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decode(t, w, nil)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}

	assert.Equal(t, "", app.service.Supplier().CompanyName, "rejected uploads save nothing")
}
