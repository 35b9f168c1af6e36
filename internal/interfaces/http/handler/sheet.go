package handler

import (
	"strconv"

	estimateapp "github.com/estimate/backend/internal/application/estimate"
	"github.com/estimate/backend/internal/domain/estimate"
	"github.com/estimate/backend/internal/infrastructure/logger"
	"github.com/estimate/backend/internal/infrastructure/printing"
	"github.com/estimate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SheetHandler handles edits to the estimate sheet
type SheetHandler struct {
	BaseHandler
	service   *estimateapp.Service
	templates *printing.TemplateEngine
}

// NewSheetHandler creates a new SheetHandler
func NewSheetHandler(service *estimateapp.Service, templates *printing.TemplateEngine) *SheetHandler {
	return &SheetHandler{
		service:   service,
		templates: templates,
	}
}

// GetSheet returns the current sheet view model
// GET /api/v1/sheet
func (h *SheetHandler) GetSheet(c *gin.Context) {
	h.Success(c, h.service.View(nil))
}

// UpdateMetadata patches customer name, remarks and issue date
// PUT /api/v1/sheet/metadata
func (h *SheetHandler) UpdateMetadata(c *gin.Context) {
	var req dto.UpdateMetadataRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.dispatch(c, estimateapp.UpdateMetadataCommand{
		CustomerName: req.CustomerName,
		Remarks:      req.Remarks,
		IssueDate:    req.IssueDate,
	}, nil)
}

// AddItem appends a blank row
// POST /api/v1/sheet/items
func (h *SheetHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	h.dispatch(c, estimateapp.AddRowCommand{}, req.Focus)
}

// UpdateItem edits one cell of a row
// PATCH /api/v1/sheet/items/:index
func (h *SheetHandler) UpdateItem(c *gin.Context) {
	index, ok := h.rowIndex(c)
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	focus := toFocus(req.Focus)
	if focus != nil && focus.Value == "" && focus.Index == index && sameField(focus.Field, req.Field) {
		focus.Value = req.Value
	}
	h.dispatchFocus(c, estimateapp.UpdateFieldCommand{
		Index: index,
		Field: req.Field,
		Value: req.Value,
	}, focus)
}

// DeleteItem removes a row. Removing the only row leaves one blank row.
// DELETE /api/v1/sheet/items/:index
func (h *SheetHandler) DeleteItem(c *gin.Context) {
	index, ok := h.rowIndex(c)
	if !ok {
		return
	}
	h.dispatch(c, estimateapp.DeleteRowCommand{Index: index}, nil)
}

// ApplyProduct writes a saved product into a row
// POST /api/v1/sheet/items/apply-product
func (h *SheetHandler) ApplyProduct(c *gin.Context) {
	var req dto.ApplyProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.dispatch(c, estimateapp.SelectProductCommand{
		ProductName: req.Name,
		RowIndex:    req.RowIndex,
	}, req.Focus)
}

func (h *SheetHandler) rowIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidIndex, "Row index must be an integer")
		return 0, false
	}
	return index, true
}

func (h *SheetHandler) dispatch(c *gin.Context, cmd estimateapp.Command, focus *dto.FocusRequest) {
	h.dispatchFocus(c, cmd, toFocus(focus))
}

func (h *SheetHandler) dispatchFocus(c *gin.Context, cmd estimateapp.Command, focus *estimateapp.Focus) {
	result, err := h.service.Dispatch(c.Request.Context(), cmd, focus)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := dto.SheetResponse{
		Sheet:      result.View,
		GrandTotal: result.View.GrandTotal,
		Rerender:   result.Rerender,
	}
	if result.Rerender {
		table, err := h.templates.RenderTableString(result.View)
		if err != nil {
			logger.FromContext(c.Request.Context()).Error("failed to render sheet table",
				zap.String("command", cmd.Name()), zap.Error(err))
			h.InternalError(c, "Failed to render sheet")
			return
		}
		resp.TableHTML = table
	}
	h.Success(c, resp)
}

func toFocus(f *dto.FocusRequest) *estimateapp.Focus {
	if f == nil {
		return nil
	}
	return &estimateapp.Focus{
		Index:          f.Index,
		Field:          f.Field,
		SelectionStart: f.SelectionStart,
		SelectionEnd:   f.SelectionEnd,
		Value:          f.Value,
	}
}

// sameField compares field names the way the ledger parses them
func sameField(a, b string) bool {
	fa, errA := estimate.ParseField(a)
	fb, errB := estimate.ParseField(b)
	return errA == nil && errB == nil && fa == fb
}
