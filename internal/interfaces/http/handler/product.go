package handler

import (
	"strings"

	estimateapp "github.com/estimate/backend/internal/application/estimate"
	"github.com/estimate/backend/internal/domain/shared/valueobject"
	"github.com/estimate/backend/internal/infrastructure/printing"
	"github.com/estimate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles the saved product catalog
type ProductHandler struct {
	BaseHandler
	service   *estimateapp.Service
	templates *printing.TemplateEngine
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(service *estimateapp.Service, templates *printing.TemplateEngine) *ProductHandler {
	return &ProductHandler{
		service:   service,
		templates: templates,
	}
}

// ListProducts returns the catalog in insertion order
// GET /api/v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	h.respond(c, h.service.View(nil).Products, false)
}

// AddProduct saves a product. A duplicate name is rejected with 409 and
// the catalog is left unchanged.
// POST /api/v1/products
func (h *ProductHandler) AddProduct(c *gin.Context) {
	var req dto.AddProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.service.Dispatch(c.Request.Context(), estimateapp.AddProductCommand{
		ProductName: req.Name,
		Price:       valueobject.ParseNumber(req.Price),
	}, nil)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, result.View.Products, true)
}

// RemoveProduct deletes every product with the given name
// DELETE /api/v1/products/:name
func (h *ProductHandler) RemoveProduct(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	result, err := h.service.Dispatch(c.Request.Context(), estimateapp.RemoveProductCommand{ProductName: name}, nil)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, result.View.Products, false)
}

func (h *ProductHandler) respond(c *gin.Context, lines []printing.ProductLine, created bool) {
	var list strings.Builder
	if err := h.templates.RenderProductList(&list, lines); err != nil {
		h.HandleError(c, err)
		return
	}

	products := make([]dto.ProductResponse, len(lines))
	for i, p := range lines {
		products[i] = dto.ProductResponse{Name: p.Name, Price: p.Price, Label: p.Label}
	}
	resp := dto.ProductListResponse{Products: products, ListHTML: list.String()}
	if created {
		h.Created(c, resp)
		return
	}
	h.Success(c, resp)
}
