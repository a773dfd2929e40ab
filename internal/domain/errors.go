package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrForbidden             = errors.New("acceso denegado")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrUnknownProduct        = errors.New("producto desconocido")
	ErrReturnExceedsOriginal = errors.New("la devolución excede la factura original")
	ErrInvalidCredentials    = errors.New("credenciales inválidas")
	ErrEmailAlreadyExists    = errors.New("el email ya está registrado")
)
