package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/pkg/logger"
	"github.com/jhoicas/pos-sync/pkg/metrics"
)

// PaymentUseCase registra abonos de clientes y pagos a proveedores.
type PaymentUseCase struct {
	txRunner    BillingTxRunner
	paymentRepo repository.PaymentRepository
	cache       ResultCache
	metrics     *metrics.ReconcileMetrics
	log         *logger.Logger
	now         func() time.Time
}

// NewPaymentUseCase construye el caso de uso. cache, m y log son opcionales.
func NewPaymentUseCase(
	txRunner BillingTxRunner,
	paymentRepo repository.PaymentRepository,
	cache ResultCache,
	m *metrics.ReconcileMetrics,
	log *logger.Logger,
) *PaymentUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &PaymentUseCase{
		txRunner:    txRunner,
		paymentRepo: paymentRepo,
		cache:       cache,
		metrics:     m,
		log:         log.Component("payments"),
		now:         time.Now,
	}
}

// RegisterPayment numera el pago (PAY000001) y reduce el saldo de la contraparte en una transacción.
// Igual que las facturas, una clave de idempotencia repetida devuelve el pago original.
func (uc *PaymentUseCase) RegisterPayment(ctx context.Context, actor Actor, key string, in dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	start := uc.now()
	resp, err := uc.register(ctx, actor, key, in)
	uc.metrics.Observe("payment", outcomeOf(resp != nil && resp.Replayed, err), time.Since(start))
	if err != nil {
		uc.log.Warn().Err(err).Str("idempotency_key", key).Msg("pago rechazado")
		return nil, err
	}
	uc.log.Info().Str("number", resp.Number).Bool("replayed", resp.Replayed).Msg("pago registrado")
	return resp, nil
}

func (uc *PaymentUseCase) register(ctx context.Context, actor Actor, key string, in dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	if (in.CustomerID == "") == (in.SupplierID == "") {
		return nil, fmt.Errorf("%w: indique exactamente un cliente o un proveedor", domain.ErrInvalidInput)
	}
	if !in.Amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: el monto debe ser positivo", domain.ErrInvalidInput)
	}

	if key != "" && uc.cache != nil {
		var cached dto.CreatePaymentResponse
		if uc.cache.Get(ctx, scopePayment, key, &cached) {
			cached.Replayed = true
			return &cached, nil
		}
	}

	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = actor.UserID
	}
	p := &entity.Payment{
		ID:             uuid.New().String(),
		CustomerID:     in.CustomerID,
		SupplierID:     in.SupplierID,
		Amount:         in.Amount,
		Method:         in.Method,
		Note:           in.Note,
		CreatedBy:      createdBy,
		IdempotencyKey: key,
		CreatedAt:      uc.now(),
	}

	var resp *dto.CreatePaymentResponse
	err := uc.txRunner.RunBilling(ctx, func(repos repository.TxRepos) error {
		if key != "" {
			existing, err := repos.Payments.GetByIdempotencyKey(ctx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				resp = &dto.CreatePaymentResponse{ID: existing.ID, Number: existing.Number, Replayed: true}
				return nil
			}
		}
		seq, err := repos.Payments.NextSequence(ctx)
		if err != nil {
			return err
		}
		p.Number = entity.FormatNumber(entity.PrefixPayment, seq)
		if err := repos.Payments.Create(ctx, p); err != nil {
			return err
		}
		kind, partyID := p.Party()
		if err := repos.Parties(kind).ApplyBalance(ctx, partyID, p.Amount.Neg(), decimal.Zero); err != nil {
			return err
		}
		resp = &dto.CreatePaymentResponse{ID: p.ID, Number: p.Number}
		return nil
	})
	if err != nil {
		if key != "" && errors.Is(err, domain.ErrDuplicate) {
			existing, gerr := uc.paymentRepo.GetByIdempotencyKey(ctx, key)
			if gerr == nil && existing != nil {
				return &dto.CreatePaymentResponse{ID: existing.ID, Number: existing.Number, Replayed: true}, nil
			}
		}
		return nil, err
	}
	if key != "" && uc.cache != nil {
		uc.cache.Put(ctx, scopePayment, key, resp)
	}
	return resp, nil
}

// ListPayments lista pagos paginados, el más reciente primero.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, page dto.PageRequest) (*dto.PaymentListResponse, error) {
	page.DefaultPage()
	list, err := uc.paymentRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.PaymentListResponse{
		Items: make([]dto.PaymentResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, p := range list {
		out.Items = append(out.Items, dto.PaymentResponse{
			ID:         p.ID,
			Number:     p.Number,
			CustomerID: p.CustomerID,
			SupplierID: p.SupplierID,
			Amount:     p.Amount,
			Method:     p.Method,
			Note:       p.Note,
			CreatedBy:  p.CreatedBy,
			CreatedAt:  p.CreatedAt,
		})
	}
	return out, nil
}
