package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUUID las columnas id son UUID; otro texto no puede existir en la tabla y consultarlo
// haría fallar la sentencia (y la tx) con 22P02.
func isUUID(s string) bool { return uuid.Validate(s) == nil }

// allUUID como isUUID para referencias opcionales: vacío se acepta (se guarda NULL).
func allUUID(ids ...string) bool {
	for _, id := range ids {
		if id != "" && !isUUID(id) {
			return false
		}
	}
	return true
}

// isInvalidText valor con formato inválido para el tipo de la columna (22P02).
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isForeignKeyViolation referencia a una fila que no existe (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// nullIfEmpty guarda NULL en columnas opcionales (uuid o únicas) cuando el valor va vacío.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// fromNull lee una columna opcional como string vacío.
func fromNull(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
