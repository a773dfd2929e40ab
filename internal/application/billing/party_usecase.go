package billing

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

// PartyUseCase casos de uso para clientes y proveedores, incluido el estado de cuenta.
type PartyUseCase struct {
	customers   repository.PartyRepository
	suppliers   repository.PartyRepository
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
}

// NewPartyUseCase construye el caso de uso.
func NewPartyUseCase(
	customers, suppliers repository.PartyRepository,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
) *PartyUseCase {
	return &PartyUseCase{
		customers:   customers,
		suppliers:   suppliers,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
	}
}

func (uc *PartyUseCase) repo(kind string) (repository.PartyRepository, error) {
	switch kind {
	case entity.PartyCustomer:
		return uc.customers, nil
	case entity.PartySupplier:
		return uc.suppliers, nil
	}
	return nil, domain.ErrInvalidInput
}

// Create crea un cliente o proveedor con saldo en cero.
func (uc *PartyUseCase) Create(ctx context.Context, kind string, in dto.CreatePartyRequest) (*dto.PartyResponse, error) {
	repo, err := uc.repo(kind)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	p := &entity.Party{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		Phone:     in.Phone,
		Email:     in.Email,
		Address:   in.Address,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return toPartyResponse(kind, p), nil
}

// Get obtiene un cliente o proveedor por ID.
func (uc *PartyUseCase) Get(ctx context.Context, kind, id string) (*dto.PartyResponse, error) {
	repo, err := uc.repo(kind)
	if err != nil {
		return nil, err
	}
	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return toPartyResponse(kind, p), nil
}

// List lista clientes o proveedores con paginación.
func (uc *PartyUseCase) List(ctx context.Context, kind string, page dto.PageRequest) (*dto.PartyListResponse, error) {
	repo, err := uc.repo(kind)
	if err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.PartyListResponse{
		Items: make([]dto.PartyResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, p := range list {
		out.Items = append(out.Items, *toPartyResponse(kind, p))
	}
	return out, nil
}

// Statement arma el estado de cuenta: facturas al debe (devoluciones al haber), el abono hecho al
// facturar como contrapartida con la misma referencia y los pagos al haber. El saldo acumulado de
// la última línea coincide con Balance.
func (uc *PartyUseCase) Statement(ctx context.Context, kind, id string) (*dto.StatementResponse, error) {
	repo, err := uc.repo(kind)
	if err != nil {
		return nil, err
	}
	party, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if party == nil {
		return nil, domain.ErrNotFound
	}
	invoices, err := uc.invoiceRepo.ListByParty(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	payments, err := uc.paymentRepo.ListByParty(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	lines := BuildStatement(invoices, payments)
	resp := &dto.StatementResponse{
		PartyID: party.ID,
		Kind:    kind,
		Name:    party.Name,
		Balance: party.Balance,
		Lines:   make([]dto.StatementLineResponse, 0, len(lines)),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.StatementLineResponse{
			Date:           l.Date,
			Reference:      l.Reference,
			Kind:           l.Kind,
			Debit:          l.Debit,
			Credit:         l.Credit,
			RunningBalance: l.RunningBalance,
		})
	}
	return resp, nil
}

// BuildStatement ordena los movimientos por fecha (estable: factura, su abono, luego pagos)
// y acumula el saldo. Las facturas anuladas no generan movimientos.
func BuildStatement(invoices []*entity.Invoice, payments []*entity.Payment) []entity.StatementLine {
	lines := make([]entity.StatementLine, 0, 2*len(invoices)+len(payments))
	sorted := append([]*entity.Invoice(nil), invoices...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	for _, inv := range sorted {
		if inv.Status == entity.InvoiceStatusCancelled {
			continue
		}
		if inv.Type == entity.InvoiceTypeReturn {
			lines = append(lines, entity.StatementLine{
				Date: inv.CreatedAt, Reference: inv.Number, Kind: entity.StatementReturn, Credit: inv.Total,
			})
			if inv.Paid.IsPositive() {
				lines = append(lines, entity.StatementLine{
					Date: inv.CreatedAt, Reference: inv.Number, Kind: entity.StatementReturnPaid, Debit: inv.Paid,
				})
			}
			continue
		}
		lines = append(lines, entity.StatementLine{
			Date: inv.CreatedAt, Reference: inv.Number, Kind: entity.StatementInvoice, Debit: inv.Total,
		})
		if inv.Paid.IsPositive() {
			lines = append(lines, entity.StatementLine{
				Date: inv.CreatedAt, Reference: inv.Number, Kind: entity.StatementInvoicePaid, Credit: inv.Paid,
			})
		}
	}
	for _, p := range payments {
		lines = append(lines, entity.StatementLine{
			Date: p.CreatedAt, Reference: p.Number, Kind: entity.StatementPayment, Credit: p.Amount,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Date.Before(lines[j].Date) })

	running := decimal.Zero
	for i := range lines {
		running = running.Add(lines[i].Debit).Sub(lines[i].Credit)
		lines[i].RunningBalance = running
	}
	return lines
}

func toPartyResponse(kind string, p *entity.Party) *dto.PartyResponse {
	return &dto.PartyResponse{
		ID:             p.ID,
		Kind:           kind,
		Name:           p.Name,
		Phone:          p.Phone,
		Email:          p.Email,
		Address:        p.Address,
		Notes:          p.Notes,
		Balance:        p.Balance,
		TotalPurchases: p.TotalPurchases,
		CreatedAt:      p.CreatedAt,
	}
}
