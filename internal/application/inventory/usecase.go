package inventory

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
	"github.com/jhoicas/pos-sync/internal/domain/inventory"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

// StockUseCase aplica los efectos de inventario: por factura (dentro de la tx de conciliación)
// o por ajuste directo (transacción propia), siempre con bloqueo de fila (SELECT FOR UPDATE).
type StockUseCase struct {
	txRunner TxRunner
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(txRunner TxRunner) *StockUseCase {
	return &StockUseCase{txRunner: txRunner}
}

// StockEffect efecto de una factura sobre un producto. Las líneas repetidas del mismo producto
// llegan ya sumadas; UnitCost es el precio promedio de compra (solo compras).
type StockEffect struct {
	InvoiceType   string
	ProductID     string
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	TransactionID string // ID de la factura
	Reference     string // número de la factura
	UserID        string
	Now           time.Time
}

// ApplyInTx ejecuta el efecto usando los repositorios del caller (misma transacción).
// Venta resta (rechaza si no alcanza), compra suma y recalcula el costo promedio, devolución suma.
// Si retorna error el caller debe hacer rollback.
func (uc *StockUseCase) ApplyInTx(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	e StockEffect,
) error {
	if !e.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	stock, err := stockRepo.GetForUpdate(ctx, e.ProductID)
	if err != nil {
		return err
	}
	if stock == nil {
		return domain.ErrUnknownProduct
	}

	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		TransactionID: e.TransactionID,
		ProductID:     e.ProductID,
		Reference:     e.Reference,
		CreatedBy:     e.UserID,
		CreatedAt:     e.Now,
	}
	switch e.InvoiceType {
	case entity.InvoiceTypeSale:
		if stock.Quantity.LessThan(e.Quantity) {
			return fmt.Errorf("%w: producto %s tiene %s, se piden %s",
				domain.ErrInsufficientStock, e.ProductID, stock.Quantity, e.Quantity)
		}
		mov.Type = entity.MovementTypeOut
		mov.Quantity = e.Quantity.Neg()
		mov.UnitCost = stock.Cost
		stock.Quantity = stock.Quantity.Sub(e.Quantity)
	case entity.InvoiceTypePurchase:
		mov.Type = entity.MovementTypeIn
		mov.Quantity = e.Quantity
		mov.UnitCost = e.UnitCost
		stock.Cost = inventory.CostCalculator(stock.Quantity, stock.Cost, e.Quantity, e.UnitCost)
		stock.Quantity = stock.Quantity.Add(e.Quantity)
	case entity.InvoiceTypeReturn:
		mov.Type = entity.MovementTypeIn
		mov.Quantity = e.Quantity
		mov.UnitCost = stock.Cost
		stock.Quantity = stock.Quantity.Add(e.Quantity)
	default:
		return domain.ErrInvalidInput
	}

	// (transaction_id, product_id) es único: una factura no mueve dos veces el mismo producto.
	if err := movRepo.Create(ctx, mov); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return fmt.Errorf("%w: movimiento repetido para %s", domain.ErrConflict, e.ProductID)
		}
		return err
	}
	stock.UpdatedAt = e.Now
	return stockRepo.Set(ctx, stock)
}

// Adjust fija las existencias de un producto (edición directa) y deja un movimiento de ajuste.
func (uc *StockUseCase) Adjust(ctx context.Context, userID string, in dto.AdjustStockRequest) (*dto.AdjustStockResponse, error) {
	if in.ProductID == "" || in.Quantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var out *dto.AdjustStockResponse
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		stock, err := stockRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrNotFound
		}
		reason := in.Reason
		if reason == "" {
			reason = "ajuste manual"
		}
		mov := &entity.StockMovement{
			ID:            uuid.New().String(),
			TransactionID: uuid.New().String(),
			ProductID:     in.ProductID,
			Type:          entity.MovementTypeAdjust,
			Quantity:      in.Quantity.Sub(stock.Quantity),
			UnitCost:      stock.Cost,
			Reference:     reason,
			CreatedBy:     userID,
			CreatedAt:     now,
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
		out = &dto.AdjustStockResponse{
			ProductID:  in.ProductID,
			MovementID: mov.ID,
			Previous:   stock.Quantity,
			Quantity:   in.Quantity,
		}
		stock.Quantity = in.Quantity
		stock.UpdatedAt = now
		return stockRepo.Set(ctx, stock)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
