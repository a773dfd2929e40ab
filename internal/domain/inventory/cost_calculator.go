package inventory

import "github.com/shopspring/decimal"

// CostCalculator costo promedio ponderado tras una entrada de mercancía (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Existencias negativas o nulas no aportan al promedio: el costo pasa a ser el de la entrada.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	if cantEntrada.LessThanOrEqual(decimal.Zero) {
		return costoActual
	}
	if stockActual.LessThanOrEqual(decimal.Zero) {
		return costoEntrada
	}
	sum := stockActual.Add(cantEntrada)
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.DivRound(sum, 4)
}

// SuggestedReorder cantidad sugerida para reponer un producto en alerta: 2*mínimo - existencias, nunca negativa.
func SuggestedReorder(quantity, minQuantity decimal.Decimal) decimal.Decimal {
	s := minQuantity.Mul(decimal.NewFromInt(2)).Sub(quantity)
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}
