package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/pos-sync/internal/application/dto"
)

// catalogColumns encabezado esperado del CSV (orden libre, name y price obligatorios).
var catalogColumns = []string{"name", "barcode", "price", "cost", "quantity", "min_quantity"}

// decoderFor convierte exportaciones de cajas registradoras viejas (ISO-8859-1 / Windows-1252) a UTF-8.
func decoderFor(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf8", "utf-8":
		return r, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("encoding no soportado: %s", encoding)
}

// readCatalog lee el CSV de productos. Separador "," o ";" (detectado en el encabezado).
func readCatalog(r io.Reader, encoding string) ([]dto.CreateProductRequest, error) {
	dr, err := decoderFor(r, encoding)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(dr)
	if err != nil {
		return nil, fmt.Errorf("leer CSV: %w", err)
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	if first, _, _ := strings.Cut(text, "\n"); strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["name"]; !ok {
		return nil, errors.New("el CSV debe tener columna name")
	}
	if _, ok := idx["price"]; !ok {
		return nil, errors.New("el CSV debe tener columna price")
	}

	var out []dto.CreateProductRequest
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		field := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		p := dto.CreateProductRequest{Name: field("name"), Barcode: field("barcode")}
		if p.Name == "" {
			continue
		}
		for col, dst := range map[string]*decimal.Decimal{
			"price": &p.Price, "cost": &p.Cost, "quantity": &p.Quantity, "min_quantity": &p.MinQuantity,
		} {
			v := field(col)
			if v == "" {
				continue
			}
			d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
			if err != nil {
				return nil, fmt.Errorf("línea %d, %s=%q: %w", line, col, v, err)
			}
			*dst = d
		}
		out = append(out, p)
	}
	return out, nil
}

// seedKey clave de idempotencia estable: repetir la carga no duplica productos.
func seedKey(p dto.CreateProductRequest) string {
	if p.Barcode != "" {
		return "seed:" + p.Barcode
	}
	return "seed:" + strings.ToLower(p.Name)
}
