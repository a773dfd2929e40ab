package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/application/dto"
)

// InvoiceHandler conciliación de facturas y comprobantes (protegido).
type InvoiceHandler struct {
	uc      *billing.CreateInvoiceUseCase
	receipt *billing.ReceiptUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.CreateInvoiceUseCase, receipt *billing.ReceiptUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, receipt: receipt}
}

// Create godoc
// @Summary      Conciliar factura (venta, compra o devolución)
// @Description  Asigna número, aplica inventario y saldo en una transacción. Con una Idempotency-Key
// @Description  ya procesada responde 200 con el resultado original sin volver a aplicar efectos.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "ID del ítem del outbox del terminal"
// @Param        body  body  dto.CreateInvoiceRequest  true  "Factura"
// @Success      201   {object}  dto.CreateInvoiceResponse
// @Success      200   {object}  dto.CreateInvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	key, ok := idempotencyKey(c)
	if !ok {
		return badRequest(c, "VALIDATION", "Idempotency-Key demasiado larga")
	}
	var in dto.CreateInvoiceRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateInvoice(c.UserContext(), actor(c), key, in)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out.Replayed, out)
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Tamaño de página (máx. 100)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.InvoiceListResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListInvoices(c.UserContext(), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura con ítems
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Receipt godoc
// @Summary      Comprobante PDF de la factura
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/receipt [get]
func (h *InvoiceHandler) Receipt(c *fiber.Ctx) error {
	pdf, filename, err := h.receipt.Render(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}
