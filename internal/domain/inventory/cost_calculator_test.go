package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCostCalculator(t *testing.T) {
	tests := []struct {
		name                           string
		stock, cost, entrada, costoEnt string
		want                           string
	}{
		{"promedio ponderado", "10", "100", "10", "200", "150"},
		{"sin existencias toma costo de entrada", "0", "100", "5", "80", "80"},
		{"existencias negativas toman costo de entrada", "-3", "100", "5", "80", "80"},
		{"entrada nula conserva costo", "10", "100", "0", "500", "100"},
		{"redondeo a 4 decimales", "1", "1", "2", "2", "1.6667"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CostCalculator(dec(tt.stock), dec(tt.cost), dec(tt.entrada), dec(tt.costoEnt))
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestSuggestedReorder(t *testing.T) {
	assert.True(t, dec("7").Equal(SuggestedReorder(dec("3"), dec("5"))))
	assert.True(t, decimal.Zero.Equal(SuggestedReorder(dec("20"), dec("5"))))
}
