package estimate

import (
	"github.com/estimate/backend/internal/domain/estimate"
	"github.com/estimate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Command is one mutation of the working document. Apply reports whether
// the sheet table must be re-rendered afterwards.
type Command interface {
	Name() string
	Apply(state *estimate.State) (rerender bool, err error)
}

// AddRowCommand appends a blank row
type AddRowCommand struct{}

func (AddRowCommand) Name() string { return "add_row" }

func (AddRowCommand) Apply(state *estimate.State) (bool, error) {
	state.Ledger.AddRow()
	return true, nil
}

// UpdateFieldCommand edits one cell. Name edits are stored without a
// re-render so the user's typing is not interrupted.
type UpdateFieldCommand struct {
	Index int
	Field string
	Value string
}

func (UpdateFieldCommand) Name() string { return "update_field" }

func (c UpdateFieldCommand) Apply(state *estimate.State) (bool, error) {
	field, err := estimate.ParseField(c.Field)
	if err != nil {
		return false, err
	}
	if err := state.Ledger.UpdateField(c.Index, field, c.Value); err != nil {
		return false, err
	}
	return field != estimate.FieldName, nil
}

// DeleteRowCommand removes a row; the last row is reset instead
type DeleteRowCommand struct {
	Index int
}

func (DeleteRowCommand) Name() string { return "delete_row" }

func (c DeleteRowCommand) Apply(state *estimate.State) (bool, error) {
	return true, state.Ledger.DeleteRow(c.Index)
}

// ApplyProductCommand writes a product into a row. RowIndex nil means the
// first blank row, or a new one.
type ApplyProductCommand struct {
	ProductName string
	Price       decimal.Decimal
	RowIndex    *int
}

func (ApplyProductCommand) Name() string { return "apply_product" }

func (c ApplyProductCommand) Apply(state *estimate.State) (bool, error) {
	_, err := state.Ledger.ApplyProduct(c.RowIndex, c.ProductName, c.Price)
	return err == nil, err
}

// SelectProductCommand looks a saved product up by name and applies it
type SelectProductCommand struct {
	ProductName string
	RowIndex    *int
}

func (SelectProductCommand) Name() string { return "select_product" }

func (c SelectProductCommand) Apply(state *estimate.State) (bool, error) {
	product, ok := state.Catalog.Find(c.ProductName)
	if !ok {
		return false, shared.NewDomainError(shared.CodeNotFound, "Product not found: "+c.ProductName)
	}
	return ApplyProductCommand{
		ProductName: product.Name,
		Price:       product.Price,
		RowIndex:    c.RowIndex,
	}.Apply(state)
}

// UpdateMetadataCommand patches the sheet header. Nil fields are left alone.
type UpdateMetadataCommand struct {
	CustomerName *string
	Remarks      *string
	IssueDate    *string
}

func (UpdateMetadataCommand) Name() string { return "update_metadata" }

func (c UpdateMetadataCommand) Apply(state *estimate.State) (bool, error) {
	meta := state.Metadata
	if c.IssueDate != nil {
		if err := meta.SetIssueDate(*c.IssueDate); err != nil {
			return false, err
		}
	}
	if c.CustomerName != nil {
		meta.CustomerName = *c.CustomerName
	}
	if c.Remarks != nil {
		meta.Remarks = *c.Remarks
	}
	state.Metadata = meta
	return false, nil
}

// SaveSupplierCommand overwrites the supplier profile. SealImage is an
// already processed data URI; nil keeps the stored seal.
type SaveSupplierCommand struct {
	CompanyName   string
	ContactPerson string
	Phone         string
	SealImage     *string
}

func (SaveSupplierCommand) Name() string { return "save_supplier" }

func (c SaveSupplierCommand) Apply(state *estimate.State) (bool, error) {
	state.Supplier.Save(c.CompanyName, c.ContactPerson, c.Phone, c.SealImage)
	return false, nil
}

// RemoveSealCommand drops the stored seal image
type RemoveSealCommand struct{}

func (RemoveSealCommand) Name() string { return "remove_seal" }

func (RemoveSealCommand) Apply(state *estimate.State) (bool, error) {
	state.Supplier.RemoveSeal()
	return false, nil
}

// AddProductCommand saves a product to the catalog
type AddProductCommand struct {
	ProductName string
	Price       decimal.Decimal
}

func (AddProductCommand) Name() string { return "add_product" }

func (c AddProductCommand) Apply(state *estimate.State) (bool, error) {
	_, err := state.Catalog.Add(c.ProductName, c.Price)
	return false, err
}

// RemoveProductCommand deletes every product with the given name
type RemoveProductCommand struct {
	ProductName string
}

func (RemoveProductCommand) Name() string { return "remove_product" }

func (c RemoveProductCommand) Apply(state *estimate.State) (bool, error) {
	state.Catalog.Remove(c.ProductName)
	return false, nil
}
