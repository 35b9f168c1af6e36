package partner

import "strings"

// SupplierProfile is the issuing company shown on every estimate.
// There is a single profile per store; saving overwrites it wholesale.
type SupplierProfile struct {
	CompanyName   string
	ContactPerson string
	Phone         string
	// SealImage is an image data URI, empty when no seal has been uploaded
	SealImage string
}

// Save overwrites the text fields. The seal is replaced only when one is
// supplied; nil keeps the stored seal.
func (s *SupplierProfile) Save(company, contact, phone string, seal *string) {
	s.CompanyName = company
	s.ContactPerson = contact
	s.Phone = phone
	if seal != nil {
		s.SealImage = *seal
	}
}

// HasSeal reports whether a seal image is stored
func (s SupplierProfile) HasSeal() bool {
	return strings.TrimSpace(s.SealImage) != ""
}

// RemoveSeal drops the stored seal image
func (s *SupplierProfile) RemoveSeal() {
	s.SealImage = ""
}
