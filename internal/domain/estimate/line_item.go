package estimate

import (
	"strings"

	"github.com/estimate/backend/internal/domain/shared"
	"github.com/estimate/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field identifies an editable column of a line item
type Field string

const (
	FieldName     Field = "name"
	FieldQuantity Field = "qty"
	FieldPrice    Field = "price"
)

// ParseField resolves a field name sent by a client. "quantity" is
// accepted as an alias of "qty".
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return FieldName, nil
	case "qty", "quantity":
		return FieldQuantity, nil
	case "price":
		return FieldPrice, nil
	default:
		return "", shared.NewDomainError(shared.CodeInvalidInput, "Unknown field: "+s)
	}
}

// LineItem is one row of the estimate.
// Quantity keeps the raw text the user typed; it is only coerced to a
// number when amounts are computed. UnitPrice is parsed on entry.
type LineItem struct {
	ID        string
	Name      string
	Quantity  string
	UnitPrice valueobject.Number
}

// NewBlankLineItem creates an empty row with a fresh id
func NewBlankLineItem() LineItem {
	return LineItem{ID: uuid.NewString(), UnitPrice: valueobject.BlankNumber()}
}

// IsBlank reports whether name, quantity and price are all empty
func (i LineItem) IsBlank() bool {
	return i.Name == "" && i.Quantity == "" && i.UnitPrice.IsBlank()
}

// Amount returns quantity x unit price; non-numeric parts count as zero
func (i LineItem) Amount() decimal.Decimal {
	return valueobject.ParseNumber(i.Quantity).Mul(i.UnitPrice.Decimal())
}

// needsDefaultQuantity reports whether applying a product should reset
// the quantity to 1
func (i LineItem) needsDefaultQuantity() bool {
	q := strings.TrimSpace(i.Quantity)
	return q == "" || q == "0"
}
