package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)
var _ repository.StockRepository = (*StockRepo)(nil)

// ProductRepo productos en memoria.
type ProductRepo struct {
	src source
}

// Create guarda el producto. ErrDuplicate si el ID, el código de barras o la clave ya existen.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	return r.src.write(func(s *state) error {
		if _, ok := s.products[product.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, p := range s.products {
			if product.Barcode != "" && p.Barcode == product.Barcode {
				return domain.ErrDuplicate
			}
			if product.IdempotencyKey != "" && p.IdempotencyKey == product.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
		s.products[product.ID] = *product
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.src.read(func(s *state) error {
		if p, ok := s.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.Product, error) {
	var out *entity.Product
	err := r.src.read(func(s *state) error {
		for _, p := range s.products {
			if key != "" && p.IdempotencyKey == key {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

// Update modifica datos de catálogo; cantidad y costo quedan como estaban.
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	return r.src.write(func(s *state) error {
		cur, ok := s.products[product.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Name = product.Name
		cur.Barcode = product.Barcode
		cur.CategoryID = product.CategoryID
		cur.Price = product.Price
		cur.MinQuantity = product.MinQuantity
		cur.UpdatedAt = product.UpdatedAt
		s.products[product.ID] = cur
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.src.read(func(s *state) error {
		all := sortedProducts(s)
		for i := offset; i < len(all) && (limit <= 0 || i < offset+limit); i++ {
			out = append(out, all[i])
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) ListLowStock(_ context.Context) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.src.read(func(s *state) error {
		for _, p := range sortedProducts(s) {
			if p.IsLowStock() {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func sortedProducts(s *state) []*entity.Product {
	all := make([]*entity.Product, 0, len(s.products))
	for _, p := range s.products {
		p := p
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return all
}

// StockRepo existencias y costo (columnas del producto).
type StockRepo struct {
	src source
}

// GetForUpdate en memoria el lock lo da la serialización de transacciones.
func (r *StockRepo) GetForUpdate(_ context.Context, productID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.src.read(func(s *state) error {
		if p, ok := s.products[productID]; ok {
			out = &entity.Stock{ProductID: p.ID, Quantity: p.Quantity, Cost: p.Cost, UpdatedAt: p.UpdatedAt}
		}
		return nil
	})
	return out, err
}

func (r *StockRepo) Set(_ context.Context, stock *entity.Stock) error {
	return r.src.write(func(s *state) error {
		p, ok := s.products[stock.ProductID]
		if !ok {
			return domain.ErrNotFound
		}
		p.Quantity = stock.Quantity
		p.Cost = stock.Cost
		p.UpdatedAt = stock.UpdatedAt
		s.products[stock.ProductID] = p
		return nil
	})
}
