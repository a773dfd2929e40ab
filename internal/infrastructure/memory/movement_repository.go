package memory

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo movimientos de inventario en memoria.
type MovementRepo struct {
	src source
}

// Create respeta la unicidad (transaction_id, product_id).
func (r *MovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	return r.src.write(func(s *state) error {
		for _, m := range s.movements {
			if m.TransactionID == movement.TransactionID && m.ProductID == movement.ProductID {
				return domain.ErrDuplicate
			}
		}
		s.movements = append(s.movements, *movement)
		return nil
	})
}

func (r *MovementRepo) ListByTransaction(_ context.Context, transactionID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.src.read(func(s *state) error {
		for _, m := range s.movements {
			if m.TransactionID == transactionID {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

// ListByProduct del más reciente al más antiguo.
func (r *MovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.src.read(func(s *state) error {
		skipped := 0
		for i := len(s.movements) - 1; i >= 0; i-- {
			m := s.movements[i]
			if m.ProductID != productID {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, &m)
		}
		return nil
	})
	return out, err
}
