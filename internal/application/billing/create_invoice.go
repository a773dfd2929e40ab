package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/inventory"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/pkg/logger"
	"github.com/jhoicas/pos-sync/pkg/metrics"
)

// CreateInvoiceUseCase concilia una factura: numeración, inventario y saldo en una sola transacción.
type CreateInvoiceUseCase struct {
	txRunner    BillingTxRunner
	inventoryUC InventoryUseCase
	invoiceRepo repository.InvoiceRepository
	cache       ResultCache
	metrics     *metrics.ReconcileMetrics
	log         *logger.Logger
	now         func() time.Time
}

// NewCreateInvoiceUseCase construye el caso de uso. cache, m y log son opcionales.
func NewCreateInvoiceUseCase(
	txRunner BillingTxRunner,
	inventoryUC InventoryUseCase,
	invoiceRepo repository.InvoiceRepository,
	cache ResultCache,
	m *metrics.ReconcileMetrics,
	log *logger.Logger,
) *CreateInvoiceUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CreateInvoiceUseCase{
		txRunner:    txRunner,
		inventoryUC: inventoryUC,
		invoiceRepo: invoiceRepo,
		cache:       cache,
		metrics:     m,
		log:         log.Component("reconcile"),
		now:         time.Now,
	}
}

// CreateInvoice valida la solicitud y ejecuta la conciliación. key es la clave de idempotencia
// (puede ir vacía para facturas creadas en línea); una clave ya procesada devuelve el resultado
// original con Replayed=true sin volver a aplicar efectos.
func (uc *CreateInvoiceUseCase) CreateInvoice(ctx context.Context, actor Actor, key string, in dto.CreateInvoiceRequest) (*dto.CreateInvoiceResponse, error) {
	start := uc.now()
	resp, err := uc.createInvoice(ctx, actor, key, in)
	uc.metrics.Observe(in.Type, outcomeOf(resp != nil && resp.Replayed, err), time.Since(start))
	if err != nil {
		uc.log.Warn().Err(err).Str("type", in.Type).Str("idempotency_key", key).Msg("conciliación rechazada")
		return nil, err
	}
	uc.log.Info().
		Str("invoice_number", resp.InvoiceNumber).
		Str("type", in.Type).
		Bool("replayed", resp.Replayed).
		Msg("factura conciliada")
	return resp, nil
}

func (uc *CreateInvoiceUseCase) createInvoice(ctx context.Context, actor Actor, key string, in dto.CreateInvoiceRequest) (*dto.CreateInvoiceResponse, error) {
	inv, err := uc.buildInvoice(actor, key, in)
	if err != nil {
		return nil, err
	}
	if !entity.CanCreateInvoice(actor.Role, inv.Type) {
		return nil, domain.ErrForbidden
	}

	if key != "" && uc.cache != nil {
		var cached dto.CreateInvoiceResponse
		if uc.cache.Get(ctx, scopeInvoice, key, &cached) {
			cached.Replayed = true
			return &cached, nil
		}
	}

	var resp *dto.CreateInvoiceResponse
	err = uc.txRunner.RunBilling(ctx, func(repos repository.TxRepos) error {
		r, err := uc.reconcile(ctx, repos, inv)
		resp = r
		return err
	})
	if err != nil {
		// Dos reintentos concurrentes con la misma clave: el perdedor choca con el índice único.
		if key != "" && errors.Is(err, domain.ErrDuplicate) {
			existing, gerr := uc.invoiceRepo.GetByIdempotencyKey(ctx, key)
			if gerr == nil && existing != nil {
				return &dto.CreateInvoiceResponse{ID: existing.ID, InvoiceNumber: existing.Number, Replayed: true}, nil
			}
		}
		return nil, err
	}

	if key != "" && uc.cache != nil {
		uc.cache.Put(ctx, scopeInvoice, key, resp)
	}
	return resp, nil
}

// buildInvoice valida la entrada (fuera de la tx, solo lectura) y arma la entidad con totales.
func (uc *CreateInvoiceUseCase) buildInvoice(actor Actor, key string, in dto.CreateInvoiceRequest) (*entity.Invoice, error) {
	if !entity.ValidInvoiceType(in.Type) || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.Discount.IsNegative() || in.Tax.IsNegative() || in.Paid.IsNegative() {
		return nil, fmt.Errorf("%w: descuento, impuesto y abono no pueden ser negativos", domain.ErrInvalidInput)
	}
	switch in.Type {
	case entity.InvoiceTypePurchase:
		if in.CustomerID != "" {
			return nil, fmt.Errorf("%w: una compra no lleva cliente", domain.ErrInvalidInput)
		}
	default:
		if in.SupplierID != "" {
			return nil, fmt.Errorf("%w: solo las compras llevan proveedor", domain.ErrInvalidInput)
		}
	}
	if in.Type == entity.InvoiceTypeReturn && in.OriginalInvoiceID == "" {
		return nil, fmt.Errorf("%w: la devolución requiere la factura original", domain.ErrInvalidInput)
	}
	if in.Type != entity.InvoiceTypeReturn && in.OriginalInvoiceID != "" {
		return nil, fmt.Errorf("%w: solo las devoluciones referencian una factura original", domain.ErrInvalidInput)
	}

	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = actor.UserID
	}
	inv := &entity.Invoice{
		ID:                uuid.New().String(),
		Type:              in.Type,
		CustomerID:        in.CustomerID,
		SupplierID:        in.SupplierID,
		OriginalInvoiceID: in.OriginalInvoiceID,
		Discount:          in.Discount,
		Tax:               in.Tax,
		Paid:              in.Paid,
		PaymentMethod:     in.PaymentMethod,
		CreatedBy:         createdBy,
		IdempotencyKey:    key,
		CreatedAt:         uc.now(),
	}
	for _, item := range in.Items {
		if item.ProductID == "" || !item.Quantity.GreaterThan(decimal.Zero) || item.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		inv.Items = append(inv.Items, entity.InvoiceItem{
			ID:        uuid.New().String(),
			InvoiceID: inv.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	inv.ComputeTotals()

	if in.Total != nil && !in.Total.Equal(inv.Total) {
		return nil, fmt.Errorf("%w: total %s no coincide con subtotal - descuento + impuesto (%s)",
			domain.ErrInvalidInput, in.Total, inv.Total)
	}
	if inv.Total.IsNegative() {
		return nil, fmt.Errorf("%w: el descuento supera el subtotal", domain.ErrInvalidInput)
	}
	if inv.Paid.GreaterThan(inv.Total) {
		return nil, fmt.Errorf("%w: el abono supera el total", domain.ErrInvalidInput)
	}
	switch in.Status {
	case "":
		inv.Status = entity.InvoiceStatusPending
		if inv.Remaining.IsZero() {
			inv.Status = entity.InvoiceStatusCompleted
		}
	case entity.InvoiceStatusPending, entity.InvoiceStatusCompleted:
		inv.Status = in.Status
	default:
		return nil, domain.ErrInvalidInput
	}
	return inv, nil
}

// reconcile corre dentro de la transacción. Cualquier error deshace los tres efectos.
func (uc *CreateInvoiceUseCase) reconcile(ctx context.Context, repos repository.TxRepos, inv *entity.Invoice) (*dto.CreateInvoiceResponse, error) {
	// 1) Deduplicación por clave dentro de la misma transacción.
	if inv.IdempotencyKey != "" {
		existing, err := repos.Invoices.GetByIdempotencyKey(ctx, inv.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &dto.CreateInvoiceResponse{ID: existing.ID, InvoiceNumber: existing.Number, Replayed: true}, nil
		}
	}

	// 2) Productos referenciados: todos deben existir antes de tocar nada.
	lines := aggregateLines(inv.Items)
	for _, l := range lines {
		p, err := repos.Products.GetByID(ctx, l.productID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProduct, l.productID)
		}
	}

	// 3) Devoluciones: acotadas por la factura original y lo ya devuelto.
	if inv.Type == entity.InvoiceTypeReturn {
		if err := uc.checkReturn(ctx, repos, inv); err != nil {
			return nil, err
		}
	}

	// 4) Numeración serializada por tipo.
	seq, err := repos.Invoices.NextSequence(ctx, inv.Type)
	if err != nil {
		return nil, err
	}
	inv.Number = entity.FormatNumber(entity.NumberPrefix(inv.Type), seq)

	// 5) Cabecera e ítems.
	if err := repos.Invoices.Create(ctx, inv); err != nil {
		return nil, err
	}

	// 6) Inventario, un movimiento por producto (bloqueo en orden de ID).
	for _, l := range lines {
		if err := uc.inventoryUC.ApplyInTx(ctx, repos.Stock, repos.Movements, inventory.StockEffect{
			InvoiceType:   inv.Type,
			ProductID:     l.productID,
			Quantity:      l.quantity,
			UnitCost:      l.averagePrice(),
			TransactionID: inv.ID,
			Reference:     inv.Number,
			UserID:        inv.CreatedBy,
			Now:           inv.CreatedAt,
		}); err != nil {
			return nil, err
		}
	}

	// 7) Saldo de la contraparte: solo lo pendiente afecta el saldo.
	if kind, partyID := inv.Party(); partyID != "" {
		if err := repos.Parties(kind).ApplyBalance(ctx, partyID, inv.BalanceDelta(), inv.PurchasesDelta()); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, partyID)
			}
			return nil, err
		}
	}

	return &dto.CreateInvoiceResponse{ID: inv.ID, InvoiceNumber: inv.Number}, nil
}

func (uc *CreateInvoiceUseCase) checkReturn(ctx context.Context, repos repository.TxRepos, inv *entity.Invoice) error {
	original, err := repos.Invoices.GetByID(ctx, inv.OriginalInvoiceID)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: factura original %s", domain.ErrNotFound, inv.OriginalInvoiceID)
	}
	if original.Type != entity.InvoiceTypeSale {
		return fmt.Errorf("%w: solo se devuelven facturas de venta", domain.ErrInvalidInput)
	}
	if inv.CustomerID == "" {
		inv.CustomerID = original.CustomerID
	} else if inv.CustomerID != original.CustomerID {
		return fmt.Errorf("%w: el cliente no coincide con la factura original", domain.ErrInvalidInput)
	}

	soldQty := make(map[string]decimal.Decimal)
	soldPrice := make(map[string]decimal.Decimal)
	for _, it := range original.Items {
		soldQty[it.ProductID] = soldQty[it.ProductID].Add(it.Quantity)
		if it.UnitPrice.GreaterThan(soldPrice[it.ProductID]) {
			soldPrice[it.ProductID] = it.UnitPrice
		}
	}
	returned, err := repos.Invoices.ReturnedQuantities(ctx, original.ID)
	if err != nil {
		return err
	}
	for _, l := range aggregateLines(inv.Items) {
		sold, ok := soldQty[l.productID]
		if !ok {
			return fmt.Errorf("%w: el producto %s no está en la factura original", domain.ErrReturnExceedsOriginal, l.productID)
		}
		if l.quantity.Add(returned[l.productID]).GreaterThan(sold) {
			return fmt.Errorf("%w: producto %s vendido %s, devuelto %s, solicitado %s",
				domain.ErrReturnExceedsOriginal, l.productID, sold, returned[l.productID], l.quantity)
		}
		if l.maxPrice.GreaterThan(soldPrice[l.productID]) {
			return fmt.Errorf("%w: precio de devolución mayor al vendido para %s", domain.ErrReturnExceedsOriginal, l.productID)
		}
	}
	return nil
}

// productLine ítems del mismo producto sumados.
type productLine struct {
	productID string
	quantity  decimal.Decimal
	value     decimal.Decimal
	maxPrice  decimal.Decimal
}

func (l productLine) averagePrice() decimal.Decimal {
	if l.quantity.IsZero() {
		return decimal.Zero
	}
	return l.value.DivRound(l.quantity, 4)
}

// aggregateLines suma los ítems por producto y los ordena por ID (orden estable de bloqueo).
func aggregateLines(items []entity.InvoiceItem) []productLine {
	byID := make(map[string]*productLine)
	for _, it := range items {
		l, ok := byID[it.ProductID]
		if !ok {
			l = &productLine{productID: it.ProductID}
			byID[it.ProductID] = l
		}
		l.quantity = l.quantity.Add(it.Quantity)
		l.value = l.value.Add(it.Quantity.Mul(it.UnitPrice))
		if it.UnitPrice.GreaterThan(l.maxPrice) {
			l.maxPrice = it.UnitPrice
		}
	}
	out := make([]productLine, 0, len(byID))
	for _, l := range byID {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].productID < out[j].productID })
	return out
}

// GetInvoice devuelve la factura con ítems.
func (uc *CreateInvoiceUseCase) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return toInvoiceResponse(inv), nil
}

// ListInvoices lista cabeceras paginadas, la más reciente primero.
func (uc *CreateInvoiceUseCase) ListInvoices(ctx context.Context, page dto.PageRequest) (*dto.InvoiceListResponse, error) {
	page.DefaultPage()
	list, err := uc.invoiceRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, inv := range list {
		out.Items = append(out.Items, *toInvoiceResponse(inv))
	}
	return out, nil
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:                inv.ID,
		Number:            inv.Number,
		Type:              inv.Type,
		CustomerID:        inv.CustomerID,
		SupplierID:        inv.SupplierID,
		OriginalInvoiceID: inv.OriginalInvoiceID,
		Subtotal:          inv.Subtotal,
		Discount:          inv.Discount,
		Tax:               inv.Tax,
		Total:             inv.Total,
		Paid:              inv.Paid,
		Remaining:         inv.Remaining,
		Status:            inv.Status,
		PaymentMethod:     inv.PaymentMethod,
		CreatedBy:         inv.CreatedBy,
		CreatedAt:         inv.CreatedAt,
		Items:             make([]dto.InvoiceItemResponse, 0, len(inv.Items)),
	}
	for _, it := range inv.Items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return resp
}

// outcomeOf clasifica el resultado para métricas.
func outcomeOf(replayed bool, err error) string {
	switch {
	case err == nil && replayed:
		return metrics.OutcomeReplayed
	case err == nil:
		return metrics.OutcomeCreated
	case isRejection(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func isRejection(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidInput, domain.ErrNotFound, domain.ErrForbidden, domain.ErrInsufficientStock,
		domain.ErrUnknownProduct, domain.ErrReturnExceedsOriginal, domain.ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
