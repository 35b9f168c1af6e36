package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/estimate/backend/internal/domain/catalog"
	"github.com/estimate/backend/internal/domain/estimate"
	"github.com/estimate/backend/internal/domain/partner"
	"github.com/estimate/backend/internal/domain/shared/valueobject"
)

// Keys of the persisted sections
const (
	KeyEstimateState = "estimateState"
	KeySupplierInfo  = "supplierInfo"
	KeySealImage     = "sealImage"
	KeySavedProducts = "savedProducts"
)

// LooseString decodes a JSON string or number into text. Older data stores
// row ids as millisecond timestamps and quantities may be numbers.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = LooseString(n.String())
	return nil
}

// EstimateStateRecord is stored under KeyEstimateState.
// Nil fields were absent from the stored document and keep their defaults.
type EstimateStateRecord struct {
	CustomerName *string           `json:"customerName,omitempty"`
	Remarks      *string           `json:"remarks,omitempty"`
	IssueDate    *string           `json:"issueDate,omitempty"`
	Items        *[]LineItemRecord `json:"items,omitempty"`
}

// LineItemRecord is one row inside EstimateStateRecord
type LineItemRecord struct {
	ID    LooseString        `json:"id"`
	Name  string             `json:"name"`
	Qty   LooseString        `json:"qty"`
	Price valueobject.Number `json:"price"`
}

// SupplierInfoRecord is stored under KeySupplierInfo
type SupplierInfoRecord struct {
	Company       string `json:"company"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
}

// ProductRecord is one entry of the list stored under KeySavedProducts
type ProductRecord struct {
	Name  string             `json:"name"`
	Price valueobject.Number `json:"price"`
}

// NewEstimateStateRecord maps metadata and rows to their stored form
func NewEstimateStateRecord(meta estimate.Metadata, ledger *estimate.Ledger) EstimateStateRecord {
	items := ledger.Items()
	records := make([]LineItemRecord, len(items))
	for i, item := range items {
		records[i] = LineItemRecord{
			ID:    LooseString(item.ID),
			Name:  item.Name,
			Qty:   LooseString(item.Quantity),
			Price: item.UnitPrice,
		}
	}
	return EstimateStateRecord{
		CustomerName: &meta.CustomerName,
		Remarks:      &meta.Remarks,
		IssueDate:    &meta.IssueDate,
		Items:        &records,
	}
}

// ApplyTo overlays the stored fields onto defaults
func (r EstimateStateRecord) ApplyTo(meta *estimate.Metadata) *estimate.Ledger {
	if r.CustomerName != nil {
		meta.CustomerName = *r.CustomerName
	}
	if r.Remarks != nil {
		meta.Remarks = *r.Remarks
	}
	if r.IssueDate != nil {
		meta.IssueDate = *r.IssueDate
	}
	if r.Items == nil {
		return estimate.NewLedger()
	}
	items := make([]estimate.LineItem, len(*r.Items))
	for i, rec := range *r.Items {
		items[i] = estimate.LineItem{
			ID:        string(rec.ID),
			Name:      rec.Name,
			Quantity:  string(rec.Qty),
			UnitPrice: rec.Price,
		}
	}
	return estimate.RestoreLedger(items)
}

// NewSupplierInfoRecord maps the text part of a supplier profile
func NewSupplierInfoRecord(p partner.SupplierProfile) SupplierInfoRecord {
	return SupplierInfoRecord{
		Company:       p.CompanyName,
		ContactPerson: p.ContactPerson,
		Phone:         p.Phone,
	}
}

// ToDomain returns the profile without its seal image
func (r SupplierInfoRecord) ToDomain() partner.SupplierProfile {
	return partner.SupplierProfile{
		CompanyName:   r.Company,
		ContactPerson: r.ContactPerson,
		Phone:         r.Phone,
	}
}

// NewProductRecords maps the catalog in order
func NewProductRecords(c *catalog.Catalog) []ProductRecord {
	products := c.Products()
	records := make([]ProductRecord, len(products))
	for i, p := range products {
		records[i] = ProductRecord{Name: p.Name, Price: valueobject.NewNumber(p.Price)}
	}
	return records
}

// ProductsToDomain rebuilds the catalog
func ProductsToDomain(records []ProductRecord) *catalog.Catalog {
	products := make([]catalog.Product, 0, len(records))
	for _, r := range records {
		products = append(products, catalog.Product{Name: r.Name, Price: r.Price.Decimal()})
	}
	return catalog.RestoreCatalog(products)
}
