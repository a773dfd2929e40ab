package dto

import "github.com/shopspring/decimal"

// AdjustStockRequest body para POST /api/inventory/adjustments: fija las existencias de un producto.
type AdjustStockRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason,omitempty" validate:"omitempty,max=200"`
}

// AdjustStockResponse resultado del ajuste.
type AdjustStockResponse struct {
	ProductID  string          `json:"product_id"`
	MovementID string          `json:"movement_id"`
	Previous   decimal.Decimal `json:"previous"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// LowStockDTO producto en alerta de stock bajo con la cantidad sugerida para reponer.
type LowStockDTO struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Barcode      string          `json:"barcode,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinQuantity  decimal.Decimal `json:"min_quantity"`
	SuggestedQty decimal.Decimal `json:"suggested_qty"` // 2*min - quantity
	UnitCost     decimal.Decimal `json:"unit_cost"`
	OrderCost    decimal.Decimal `json:"order_cost"` // SuggestedQty * UnitCost
}
