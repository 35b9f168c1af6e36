package estimate

import (
	"fmt"

	"github.com/estimate/backend/internal/domain/shared"
	"github.com/estimate/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultAppliedQuantity is the quantity written when a product fills a row
// that has no usable quantity
const DefaultAppliedQuantity = "1"

// Ledger is the ordered list of line items. It always holds at least one row.
type Ledger struct {
	items []LineItem
}

// Totals holds the per-row amounts (same order as the rows) and their sum
type Totals struct {
	Amounts    []decimal.Decimal
	GrandTotal decimal.Decimal
}

// NewLedger creates a ledger with a single blank row
func NewLedger() *Ledger {
	return &Ledger{items: []LineItem{NewBlankLineItem()}}
}

// RestoreLedger rebuilds a ledger from persisted rows. An empty list
// becomes one blank row and rows without an id get a fresh one.
func RestoreLedger(items []LineItem) *Ledger {
	if len(items) == 0 {
		return NewLedger()
	}
	restored := make([]LineItem, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = NewBlankLineItem().ID
		}
		restored[i] = item
	}
	return &Ledger{items: restored}
}

// Len returns the number of rows
func (l *Ledger) Len() int {
	return len(l.items)
}

// Items returns a copy of the rows
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Item returns the row at index
func (l *Ledger) Item(index int) (LineItem, error) {
	if err := l.checkIndex(index); err != nil {
		return LineItem{}, err
	}
	return l.items[index], nil
}

// AddRow appends a blank row and returns its index
func (l *Ledger) AddRow() int {
	l.items = append(l.items, NewBlankLineItem())
	return len(l.items) - 1
}

// UpdateField sets one column of a row. Price input is parsed to a number
// before it is stored (blank input stores zero); name and quantity are
// stored verbatim.
func (l *Ledger) UpdateField(index int, field Field, value string) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	item := &l.items[index]
	switch field {
	case FieldName:
		item.Name = value
	case FieldQuantity:
		item.Quantity = value
	case FieldPrice:
		item.UnitPrice = valueobject.NewNumber(valueobject.ParseNumber(value))
	default:
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown field: %s", field))
	}
	return nil
}

// DeleteRow removes a row. Deleting the only row replaces it with a
// fresh blank row.
func (l *Ledger) DeleteRow(index int) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	if len(l.items) == 1 {
		l.items = []LineItem{NewBlankLineItem()}
		return nil
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	return nil
}

// Totals computes every row amount and the grand total. It does not
// modify the ledger.
func (l *Ledger) Totals() Totals {
	t := Totals{
		Amounts:    make([]decimal.Decimal, len(l.items)),
		GrandTotal: decimal.Zero,
	}
	for i, item := range l.items {
		amount := item.Amount()
		t.Amounts[i] = amount
		t.GrandTotal = t.GrandTotal.Add(amount)
	}
	return t
}

// ApplyProduct copies a product's name and price into a row and returns
// the index of the row written.
//
// With a target, that row is overwritten and its quantity set to 1 only
// when it is blank or "0". Without a target, the first fully blank row is
// filled with quantity 1, or a new row is appended when none is blank.
func (l *Ledger) ApplyProduct(target *int, name string, price decimal.Decimal) (int, error) {
	if target != nil {
		index := *target
		if err := l.checkIndex(index); err != nil {
			return 0, err
		}
		item := &l.items[index]
		item.Name = name
		item.UnitPrice = valueobject.NewNumber(price)
		if item.needsDefaultQuantity() {
			item.Quantity = DefaultAppliedQuantity
		}
		return index, nil
	}

	for i := range l.items {
		if l.items[i].IsBlank() {
			l.items[i].Name = name
			l.items[i].Quantity = DefaultAppliedQuantity
			l.items[i].UnitPrice = valueobject.NewNumber(price)
			return i, nil
		}
	}

	item := NewBlankLineItem()
	item.Name = name
	item.Quantity = DefaultAppliedQuantity
	item.UnitPrice = valueobject.NewNumber(price)
	l.items = append(l.items, item)
	return len(l.items) - 1, nil
}

// Clone returns an independent copy
func (l *Ledger) Clone() *Ledger {
	return &Ledger{items: l.Items()}
}

func (l *Ledger) checkIndex(index int) error {
	if index < 0 || index >= len(l.items) {
		return shared.NewDomainError(shared.CodeInvalidIndex,
			fmt.Sprintf("Row index %d out of range [0, %d)", index, len(l.items)))
	}
	return nil
}
