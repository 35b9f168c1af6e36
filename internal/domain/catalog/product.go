package catalog

import (
	"strings"

	"github.com/estimate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DuplicateProductMessage is shown to the user when a product name is already saved
const DuplicateProductMessage = "이미 동일한 이름의 품명이 존재합니다."

// Product is a saved, reusable line item template
type Product struct {
	Name  string
	Price decimal.Decimal
}

// NewProduct validates and creates a product. The name is trimmed.
func NewProduct(name string, price decimal.Decimal) (Product, error) {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return Product{}, err
	}
	if err := validateProductPrice(price); err != nil {
		return Product{}, err
	}
	return Product{Name: name, Price: price}, nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product name cannot be empty")
	}
	if len([]rune(name)) > 200 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product name cannot exceed 200 characters")
	}
	return nil
}

func validateProductPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product price must be greater than zero")
	}
	return nil
}
