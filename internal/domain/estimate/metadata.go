package estimate

import (
	"strings"
	"time"
	"unicode"

	"github.com/estimate/backend/internal/domain/shared"
)

const (
	// IssueDateLayout is the calendar date format of the issue date
	IssueDateLayout = "2006-01-02"

	// DefaultDocumentName names exported files when no customer is set
	DefaultDocumentName = "견적서"
)

// Metadata is the header of the estimate sheet
type Metadata struct {
	CustomerName string
	Remarks      string
	IssueDate    string
}

// NewMetadata creates empty metadata issued today
func NewMetadata(now time.Time) Metadata {
	return Metadata{IssueDate: now.Format(IssueDateLayout)}
}

// SetIssueDate sets the issue date. An empty value clears it; anything
// else must be a YYYY-MM-DD calendar date.
func (m *Metadata) SetIssueDate(value string) error {
	value = strings.TrimSpace(value)
	if value != "" {
		if _, err := time.Parse(IssueDateLayout, value); err != nil {
			return shared.NewDomainError(shared.CodeInvalidInput, "Issue date must be in YYYY-MM-DD format")
		}
	}
	m.IssueDate = value
	return nil
}

// DocumentName is the customer name, or the default label when blank
func (m Metadata) DocumentName() string {
	name := strings.TrimSpace(m.CustomerName)
	if name == "" {
		return DefaultDocumentName
	}
	return name
}

// ExportFileName returns the PNG file name for this sheet. Path separators
// and control characters are replaced so the name is safe as a file or key.
func (m Metadata) ExportFileName() string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, m.DocumentName())
	return name + ".png"
}
