package catalog

import (
	"github.com/estimate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Catalog is the ordered set of saved products, keyed by exact name
type Catalog struct {
	products []Product
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{products: make([]Product, 0)}
}

// RestoreCatalog rebuilds a catalog from persisted entries.
// Entries with a blank name and repeated names are dropped so the
// uniqueness invariant holds even for hand-edited data.
func RestoreCatalog(products []Product) *Catalog {
	c := NewCatalog()
	for _, p := range products {
		if p.Name == "" {
			continue
		}
		if _, exists := c.Find(p.Name); exists {
			continue
		}
		c.products = append(c.products, p)
	}
	return c
}

// Add appends a new product. Blank names, non-positive prices and names
// already present are rejected and leave the catalog unchanged.
func (c *Catalog) Add(name string, price decimal.Decimal) (Product, error) {
	product, err := NewProduct(name, price)
	if err != nil {
		return Product{}, err
	}
	if _, exists := c.Find(product.Name); exists {
		return Product{}, shared.NewDomainError(shared.CodeAlreadyExists, DuplicateProductMessage)
	}
	c.products = append(c.products, product)
	return product, nil
}

// Remove deletes every product whose name matches exactly and returns
// how many were removed
func (c *Catalog) Remove(name string) int {
	kept := c.products[:0]
	removed := 0
	for _, p := range c.products {
		if p.Name == name {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	c.products = kept
	return removed
}

// Find looks a product up by exact name
func (c *Catalog) Find(name string) (Product, bool) {
	for _, p := range c.products {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

// Products returns a copy of the entries in insertion order
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len returns the number of saved products
func (c *Catalog) Len() int {
	return len(c.products)
}

// Clone returns an independent copy
func (c *Catalog) Clone() *Catalog {
	return &Catalog{products: c.Products()}
}
