package estimate

import (
	"fmt"
	"unicode/utf8"

	"github.com/estimate/backend/internal/domain/estimate"
	"github.com/estimate/backend/internal/domain/shared/valueobject"
	"github.com/estimate/backend/internal/infrastructure/printing"
)

// Focus is the input the client had focused when it sent a mutation.
// Value is the text the input held when the selection was read; when set,
// offsets into a regrouped price are moved by digit position.
type Focus struct {
	Index          int    `json:"index"`
	Field          string `json:"field"`
	SelectionStart *int   `json:"selection_start,omitempty"`
	SelectionEnd   *int   `json:"selection_end,omitempty"`
	Value          string `json:"value,omitempty"`
}

// Render projects the state onto the sheet view model. A focus that no
// longer points at an existing input is dropped.
func Render(state *estimate.State, focus *Focus) *printing.Sheet {
	items := state.Ledger.Items()
	totals := state.Ledger.Totals()

	rows := make([]printing.Row, len(items))
	for i, item := range items {
		rows[i] = printing.Row{
			Index:    i,
			Number:   i + 1,
			ID:       item.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.UnitPrice.Format(),
			Amount:   valueobject.FormatDecimal(totals.Amounts[i]),
		}
	}

	products := state.Catalog.Products()
	lines := make([]printing.ProductLine, len(products))
	for i, p := range products {
		price := valueobject.FormatDecimal(p.Price)
		lines[i] = printing.ProductLine{
			Name:  p.Name,
			Price: price,
			Label: fmt.Sprintf("%s (%s원)", p.Name, price),
		}
	}

	return &printing.Sheet{
		Title:        printing.DefaultTitle,
		CustomerName: state.Metadata.CustomerName,
		Remarks:      state.Metadata.Remarks,
		IssueDate:    state.Metadata.IssueDate,
		Rows:         rows,
		GrandTotal:   valueobject.FormatDecimal(totals.GrandTotal),
		Supplier: printing.SupplierBlock{
			CompanyName:   state.Supplier.CompanyName,
			ContactPerson: state.Supplier.ContactPerson,
			Phone:         state.Supplier.Phone,
			SealImage:     state.Supplier.SealImage,
		},
		Products:    lines,
		Focus:       resolveFocus(rows, focus),
		Interactive: true,
	}
}

// resolveFocus maps the client focus onto a rendered input and clamps the
// selection to the length of the value that input now shows. Price offsets
// follow the digits when the typed text was regrouped.
func resolveFocus(rows []printing.Row, focus *Focus) *printing.FocusTarget {
	if focus == nil || focus.Index < 0 || focus.Index >= len(rows) {
		return nil
	}
	field, err := estimate.ParseField(focus.Field)
	if err != nil {
		return nil
	}

	row := rows[focus.Index]
	var value string
	switch field {
	case estimate.FieldName:
		value = row.Name
	case estimate.FieldQuantity:
		value = row.Quantity
	case estimate.FieldPrice:
		value = row.Price
	}
	length := utf8.RuneCountInString(value)
	place := func(offset int) int { return clamp(offset, length) }
	if field == estimate.FieldPrice && focus.Value != "" && focus.Value != value {
		place = func(offset int) int { return valueobject.MapCaret(focus.Value, value, offset) }
	}

	target := &printing.FocusTarget{Index: focus.Index, Field: string(field)}
	if focus.SelectionStart != nil {
		start := place(*focus.SelectionStart)
		target.SelectionStart = &start
	}
	if focus.SelectionEnd != nil {
		end := place(*focus.SelectionEnd)
		target.SelectionEnd = &end
	}
	if target.SelectionStart != nil && target.SelectionEnd != nil && *target.SelectionStart > *target.SelectionEnd {
		*target.SelectionStart = *target.SelectionEnd
	}
	return target
}

func clamp(v, upper int) int {
	return max(0, min(v, upper))
}
