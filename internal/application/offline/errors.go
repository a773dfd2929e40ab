package offline

import "errors"

// Errores del terminal offline.
var (
	ErrDrainInProgress     = errors.New("ya hay una sincronización en curso")
	ErrOutboxUnavailable   = errors.New("outbox no disponible: no se pudo persistir")
	ErrNotPending          = errors.New("el ítem ya no está pendiente")
	ErrItemNotFound        = errors.New("ítem de outbox no encontrado")
	ErrUnresolvedReference = errors.New("la mutación referencia un ID local sin confirmar")
	ErrUnknownMutation     = errors.New("tipo de mutación desconocido")
	ErrNotConfirmed        = errors.New("la factura original aún no está confirmada por el servidor")
	ErrEmptyCart           = errors.New("el carrito está vacío")
	ErrUnknownProduct      = errors.New("producto no encontrado en el terminal")
	ErrInvalidInput        = errors.New("datos inválidos")
	ErrForbidden           = errors.New("el rol actual no puede registrar este documento")
	ErrReturnExceeds       = errors.New("la devolución supera lo facturado originalmente")
	ErrInUse               = errors.New("el producto local está referenciado por una factura pendiente")
)

// IsPermanent indica si el error del remoto no se resuelve reintentando (validación, conflicto).
// Errores de red, timeouts y 5xx son transitorios.
func IsPermanent(err error) bool {
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}
