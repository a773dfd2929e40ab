package repository

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para Payment.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error)
	NextSequence(ctx context.Context) (int64, error)
	// List todos los pagos, el más reciente primero.
	List(ctx context.Context, limit, offset int) ([]*entity.Payment, error)
	ListByParty(ctx context.Context, partyKind, partyID string) ([]*entity.Payment, error)
}
