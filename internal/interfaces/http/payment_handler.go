package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/application/dto"
)

// PaymentHandler abonos de clientes y pagos a proveedores.
type PaymentHandler struct {
	uc *billing.PaymentUseCase
}

func NewPaymentHandler(uc *billing.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar pago
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "ID del ítem del outbox del terminal"
// @Param        body  body  dto.CreatePaymentRequest  true  "Pago"
// @Success      201   {object}  dto.CreatePaymentResponse
// @Success      200   {object}  dto.CreatePaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/payments [post]
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	key, ok := idempotencyKey(c)
	if !ok {
		return badRequest(c, "VALIDATION", "Idempotency-Key demasiado larga")
	}
	var in dto.CreatePaymentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.RegisterPayment(c.UserContext(), actor(c), key, in)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out.Replayed, out)
}

// List godoc
// @Summary      Listar pagos
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Tamaño de página (máx. 100)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.PaymentListResponse
// @Router       /api/payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListPayments(c.UserContext(), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
