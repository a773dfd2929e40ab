package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

// ReceiptData factura conciliada ya resuelta para impresión (nombres en lugar de IDs).
type ReceiptData struct {
	Invoice      *entity.Invoice
	PartyName    string
	ProductNames map[string]string
}

// ReceiptUseCase genera el comprobante imprimible de una factura.
type ReceiptUseCase struct {
	invoiceRepo repository.InvoiceRepository
	customers   repository.PartyRepository
	suppliers   repository.PartyRepository
	productRepo repository.ProductRepository
	generator   ReceiptGenerator
}

// NewReceiptUseCase construye el caso de uso inyectando todas sus dependencias.
func NewReceiptUseCase(
	invoiceRepo repository.InvoiceRepository,
	customers, suppliers repository.PartyRepository,
	productRepo repository.ProductRepository,
	generator ReceiptGenerator,
) *ReceiptUseCase {
	return &ReceiptUseCase{
		invoiceRepo: invoiceRepo,
		customers:   customers,
		suppliers:   suppliers,
		productRepo: productRepo,
		generator:   generator,
	}
}

// Resolve arma el ReceiptData de la factura.
func (uc *ReceiptUseCase) Resolve(ctx context.Context, invoiceID string) (*ReceiptData, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("recibo: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}

	data := &ReceiptData{Invoice: inv, ProductNames: make(map[string]string, len(inv.Items))}
	if kind, partyID := inv.Party(); partyID != "" {
		repo := uc.customers
		if kind == entity.PartySupplier {
			repo = uc.suppliers
		}
		party, err := repo.GetByID(ctx, partyID)
		if err != nil {
			return nil, fmt.Errorf("recibo: obtener contraparte: %w", err)
		}
		if party != nil {
			data.PartyName = party.Name
		}
	}
	for _, it := range inv.Items {
		if _, ok := data.ProductNames[it.ProductID]; ok {
			continue
		}
		p, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("recibo: obtener producto: %w", err)
		}
		name := it.ProductID
		if p != nil {
			name = p.Name
		}
		data.ProductNames[it.ProductID] = name
	}
	return data, nil
}

// Render genera el PDF. Retorna los bytes y el nombre de archivo sugerido (INV000001.pdf).
func (uc *ReceiptUseCase) Render(ctx context.Context, invoiceID string) ([]byte, string, error) {
	data, err := uc.Resolve(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.generator.Generate(*data)
	if err != nil {
		return nil, "", fmt.Errorf("recibo: generar pdf: %w", err)
	}
	return pdf, data.Invoice.Number + ".pdf", nil
}
