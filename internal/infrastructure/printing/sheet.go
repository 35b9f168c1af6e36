package printing

// Input field names used by the sheet table. They match the field names
// accepted by the ledger update command.
const (
	FieldName     = "name"
	FieldQuantity = "qty"
	FieldPrice    = "price"
)

// DefaultTitle is printed at the top of every sheet
const DefaultTitle = "견 적 서"

// Sheet is the render-ready view of one estimate. All numbers are already
// formatted for display.
type Sheet struct {
	Title        string        `json:"title"`
	CustomerName string        `json:"customer_name"`
	Remarks      string        `json:"remarks"`
	IssueDate    string        `json:"issue_date"`
	Rows         []Row         `json:"rows"`
	GrandTotal   string        `json:"grand_total"`
	Supplier     SupplierBlock `json:"supplier"`
	Products     []ProductLine `json:"products"`
	Focus        *FocusTarget  `json:"focus,omitempty"`
	// Interactive is false for the static copy used by exports: inputs are
	// rendered as plain text and .print-hide cells are blanked.
	Interactive bool `json:"interactive"`
}

// Row is one numbered line of the table
type Row struct {
	Index    int    `json:"index"`
	Number   int    `json:"number"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity string `json:"qty"`
	Price    string `json:"price"`
	Amount   string `json:"amount"`
}

// SupplierBlock holds the supplier details printed next to the seal
type SupplierBlock struct {
	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	SealImage     string `json:"seal_image,omitempty"`
}

// HasSeal reports whether a seal image should be drawn
func (b SupplierBlock) HasSeal() bool {
	return b.SealImage != ""
}

// ProductLine is one saved product in the catalog panel
type ProductLine struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Label string `json:"label"`
}

// FocusTarget identifies the input that should hold focus after a re-render
type FocusTarget struct {
	Index          int    `json:"index"`
	Field          string `json:"field"`
	SelectionStart *int   `json:"selection_start,omitempty"`
	SelectionEnd   *int   `json:"selection_end,omitempty"`
}

// IsFocused reports whether the input for (index, field) is the focus target
func (s *Sheet) IsFocused(index int, field string) bool {
	return s.Focus != nil && s.Focus.Index == index && s.Focus.Field == field
}

// CaptureCopy returns a static copy of the sheet for image export
func (s *Sheet) CaptureCopy() *Sheet {
	out := *s
	out.Rows = append([]Row(nil), s.Rows...)
	out.Products = append([]ProductLine(nil), s.Products...)
	out.Focus = nil
	out.Interactive = false
	return &out
}
