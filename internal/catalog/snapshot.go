package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Source supplies the catalog products. Implementations may hit the network.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
}

// Snapshot is an immutable view of the catalog taken when a bill session
// starts. It is safe for concurrent reads.
type Snapshot struct {
	products []Product
	byID     map[string]int
	bySKU    map[string]int
}

// NewSnapshot validates products and indexes them by id and SKU.
func NewSnapshot(products []Product) (*Snapshot, error) {
	s := &Snapshot{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
		bySKU:    make(map[string]int, len(products)),
	}
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product %s: %w", p.ID, ErrInvalidProduct)
		}
		p.Prices = append([]PriceEntry(nil), p.Prices...)
		idx := len(s.products)
		s.products = append(s.products, p)
		s.byID[p.ID] = idx
		if sku := strings.TrimSpace(p.SKU); sku != "" {
			s.bySKU[strings.ToLower(sku)] = idx
		}
	}
	return s, nil
}

// Load fetches products from src and builds a snapshot.
func Load(ctx context.Context, src Source) (*Snapshot, error) {
	if src == nil {
		return nil, errors.New("catalog source not configured")
	}
	products, err := src.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return NewSnapshot(products)
}

// Product looks a product up by id.
func (s *Snapshot) Product(id string) (Product, error) {
	if s == nil {
		return Product{}, ErrProductNotFound
	}
	idx, ok := s.byID[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return s.products[idx], nil
}

// BySKU looks a product up by SKU, ignoring case.
func (s *Snapshot) BySKU(sku string) (Product, error) {
	if s == nil {
		return Product{}, ErrProductNotFound
	}
	idx, ok := s.bySKU[strings.ToLower(strings.TrimSpace(sku))]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return s.products[idx], nil
}

// Products returns a copy of the products in catalog order.
func (s *Snapshot) Products() []Product {
	if s == nil {
		return nil
	}
	return append([]Product(nil), s.products...)
}

// Len returns the number of products.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.products)
}
