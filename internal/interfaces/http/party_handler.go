package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/application/dto"
)

// PartyHandler clientes o proveedores; kind fija cuál de los dos atiende.
type PartyHandler struct {
	uc   *billing.PartyUseCase
	kind string
}

// NewPartyHandler construye el handler para entity.PartyCustomer o entity.PartySupplier.
func NewPartyHandler(uc *billing.PartyUseCase, kind string) *PartyHandler {
	return &PartyHandler{uc: uc, kind: kind}
}

// Create godoc
// @Summary      Crear cliente o proveedor
// @Tags         parties
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePartyRequest  true  "Datos"
// @Success      201   {object}  dto.PartyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/customers [post]
// @Router       /api/suppliers [post]
func (h *PartyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePartyRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), h.kind, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar clientes o proveedores
// @Tags         parties
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.PartyListResponse
// @Router       /api/customers [get]
// @Router       /api/suppliers [get]
func (h *PartyHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), h.kind, pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *PartyHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), h.kind, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Statement godoc
// @Summary      Estado de cuenta con saldo acumulado
// @Tags         parties
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del cliente o proveedor"
// @Success      200  {object}  dto.StatementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id}/statement [get]
// @Router       /api/suppliers/{id}/statement [get]
func (h *PartyHandler) Statement(c *fiber.Ctx) error {
	out, err := h.uc.Statement(c.UserContext(), h.kind, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
