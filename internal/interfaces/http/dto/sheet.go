package dto

import "github.com/estimate/backend/internal/infrastructure/printing"

// FocusRequest is the input the browser had focused when it sent a mutation.
// Value is that input's text at the moment the selection was read.
type FocusRequest struct {
	Index          int    `json:"index" binding:"min=0"`
	Field          string `json:"field" binding:"required"`
	SelectionStart *int   `json:"selection_start"`
	SelectionEnd   *int   `json:"selection_end"`
	Value          string `json:"value"`
}

// UpdateMetadataRequest patches the sheet header. Omitted fields are kept.
type UpdateMetadataRequest struct {
	CustomerName *string `json:"customer_name"`
	Remarks      *string `json:"remarks"`
	IssueDate    *string `json:"issue_date"`
}

// AddItemRequest appends a blank row
type AddItemRequest struct {
	Focus *FocusRequest `json:"focus"`
}

// UpdateItemRequest edits one cell of a row
type UpdateItemRequest struct {
	Field string        `json:"field" binding:"required,oneof=name qty quantity price"`
	Value string        `json:"value"`
	Focus *FocusRequest `json:"focus"`
}

// ApplyProductRequest writes a saved product into a row. Without row_index
// the first blank row is filled, or a new row is appended.
type ApplyProductRequest struct {
	Name     string        `json:"name" binding:"required"`
	RowIndex *int          `json:"row_index" binding:"omitempty,min=0"`
	Focus    *FocusRequest `json:"focus"`
}

// SheetResponse is the sheet after a mutation. TableHTML carries the
// re-rendered table body and is empty when Rerender is false.
type SheetResponse struct {
	Sheet      *printing.Sheet `json:"sheet"`
	TableHTML  string          `json:"table_html,omitempty"`
	GrandTotal string          `json:"grand_total"`
	Rerender   bool            `json:"rerender"`
}

// SupplierResponse is the supplier profile
type SupplierResponse struct {
	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	SealImage     string `json:"seal_image,omitempty"`
	HasSeal       bool   `json:"has_seal"`
}

// SealPreviewResponse carries a processed seal that has not been saved
type SealPreviewResponse struct {
	SealImage string `json:"seal_image"`
}

// AddProductRequest saves a product. Price is parsed like a price cell,
// so "1,000" is accepted.
type AddProductRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Price string `json:"price" binding:"required"`
}

// ProductResponse is one saved product
type ProductResponse struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Label string `json:"label"`
}

// ProductListResponse is the catalog with its rendered list markup
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	ListHTML string            `json:"list_html"`
}
