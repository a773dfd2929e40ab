package offline

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/application/dto"
)

// Remote contrato REST del servidor que consume el Engine. key viaja como Idempotency-Key.
// Los errores que no deben reintentarse implementan Permanent() bool.
type Remote interface {
	CreateProduct(ctx context.Context, key string, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	CreateInvoice(ctx context.Context, key string, req dto.CreateInvoiceRequest) (*dto.CreateInvoiceResponse, error)
	CreatePayment(ctx context.Context, key string, req dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error)
	ListProducts(ctx context.Context) ([]dto.ProductResponse, error)
	ListParties(ctx context.Context, kind string) ([]dto.PartyResponse, error)
}

// Prober verifica si el servidor responde (GET /health).
type Prober interface {
	Ping(ctx context.Context) error
}

// SnapshotPersister guarda y recupera el Store entre ejecuciones del terminal.
// LoadSnapshot devuelve (nil, nil) si nunca se guardó.
type SnapshotPersister interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// Session usuario autenticado en el terminal. CurrentUserID vacío si no hay sesión.
type Session interface {
	CurrentUserID() string
	CurrentRole() string
}
