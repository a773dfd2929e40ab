package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain/inventory"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

// ReplenishmentUseCase arma la lista de productos en alerta de stock bajo.
type ReplenishmentUseCase struct {
	productRepo repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(productRepo repository.ProductRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{productRepo: productRepo}
}

// LowStock devuelve los productos con existencias en o por debajo del mínimo, con la cantidad
// sugerida de pedido. Los más faltantes (mayor sugerido) primero.
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context) ([]dto.LowStockDTO, error) {
	products, err := uc.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockDTO, 0, len(products))
	for _, p := range products {
		if !p.IsLowStock() {
			continue
		}
		suggested := inventory.SuggestedReorder(p.Quantity, p.MinQuantity)
		out = append(out, dto.LowStockDTO{
			ProductID:    p.ID,
			Name:         p.Name,
			Barcode:      p.Barcode,
			Quantity:     p.Quantity,
			MinQuantity:  p.MinQuantity,
			SuggestedQty: suggested,
			UnitCost:     p.Cost,
			OrderCost:    suggested.Mul(p.Cost),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuggestedQty.GreaterThan(out[j].SuggestedQty)
	})
	return out, nil
}
