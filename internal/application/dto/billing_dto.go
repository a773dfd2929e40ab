package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePartyRequest body para POST /api/customers y POST /api/suppliers.
type CreatePartyRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// PartyResponse cliente o proveedor en respuestas.
type PartyResponse struct {
	ID             string          `json:"id"`
	Kind           string          `json:"kind"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PartyListResponse lista paginada de clientes o proveedores.
type PartyListResponse struct {
	Items []PartyResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// CreateInvoiceRequest body para POST /api/invoices (procedimiento de conciliación).
// Total es opcional; si se envía debe coincidir con subtotal - discount + tax.
type CreateInvoiceRequest struct {
	Type              string               `json:"type" validate:"required,oneof=sale purchase return"`
	CustomerID        string               `json:"customer_id,omitempty"`
	SupplierID        string               `json:"supplier_id,omitempty"`
	OriginalInvoiceID string               `json:"original_invoice_id,omitempty"`
	Items             []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount          decimal.Decimal      `json:"discount"`
	Tax               decimal.Decimal      `json:"tax"`
	Total             *decimal.Decimal     `json:"total,omitempty"`
	Paid              decimal.Decimal      `json:"paid"`
	Status            string               `json:"status,omitempty" validate:"omitempty,oneof=pending completed"`
	PaymentMethod     string               `json:"payment_method,omitempty"`
	CreatedBy         string               `json:"created_by,omitempty"`
}

// InvoiceItemRequest línea de factura (producto, cantidad, precio unitario).
type InvoiceItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateInvoiceResponse resultado de la conciliación. Replayed indica que la clave ya se había procesado.
type CreateInvoiceResponse struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
	Replayed      bool   `json:"replayed"`
}

// InvoiceResponse factura con ítems para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID                string                `json:"id"`
	Number            string                `json:"number"`
	Type              string                `json:"type"`
	CustomerID        string                `json:"customer_id,omitempty"`
	SupplierID        string                `json:"supplier_id,omitempty"`
	OriginalInvoiceID string                `json:"original_invoice_id,omitempty"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	Discount          decimal.Decimal       `json:"discount"`
	Tax               decimal.Decimal       `json:"tax"`
	Total             decimal.Decimal       `json:"total"`
	Paid              decimal.Decimal       `json:"paid"`
	Remaining         decimal.Decimal       `json:"remaining"`
	Status            string                `json:"status"`
	PaymentMethod     string                `json:"payment_method,omitempty"`
	CreatedBy         string                `json:"created_by,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	Items             []InvoiceItemResponse `json:"items"`
}

// InvoiceListResponse página de cabeceras para GET /api/invoices (items vacío en cada factura).
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceItemResponse línea de factura en la respuesta.
type InvoiceItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CreatePaymentRequest body para POST /api/payments. Exactamente uno de customer_id o supplier_id.
type CreatePaymentRequest struct {
	CustomerID string          `json:"customer_id,omitempty"`
	SupplierID string          `json:"supplier_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method,omitempty"`
	Note       string          `json:"note,omitempty"`
	CreatedBy  string          `json:"created_by,omitempty"`
}

// CreatePaymentResponse resultado del registro de un pago.
type CreatePaymentResponse struct {
	ID       string `json:"id"`
	Number   string `json:"number"`
	Replayed bool   `json:"replayed"`
}

// PaymentResponse pago conciliado.
type PaymentResponse struct {
	ID         string          `json:"id"`
	Number     string          `json:"number"`
	CustomerID string          `json:"customer_id,omitempty"`
	SupplierID string          `json:"supplier_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method,omitempty"`
	Note       string          `json:"note,omitempty"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PaymentListResponse página de GET /api/payments.
type PaymentListResponse struct {
	Items []PaymentResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// StatementResponse estado de cuenta de un cliente o proveedor.
type StatementResponse struct {
	PartyID string                  `json:"party_id"`
	Kind    string                  `json:"kind"`
	Name    string                  `json:"name"`
	Balance decimal.Decimal         `json:"balance"`
	Lines   []StatementLineResponse `json:"lines"`
}

// StatementLineResponse movimiento con saldo acumulado.
type StatementLineResponse struct {
	Date           time.Time       `json:"date"`
	Reference      string          `json:"reference"`
	Kind           string          `json:"kind"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}
