package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/usecase"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/infrastructure/memory"
)

func TestProductCreate_IdempotentePorClave(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	uc := usecase.NewProductUseCase(db.Products())
	req := dto.CreateProductRequest{Name: "Arroz", Barcode: "7701", Price: decimal.NewFromInt(3000), Quantity: decimal.NewFromInt(10)}

	first, err := uc.Create(ctx, "outbox-1", req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	again, err := uc.Create(ctx, "outbox-1", req)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.ID, again.ID)

	list, err := uc.List(ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 20, list.Page.Limit)

	_, err = uc.Create(ctx, "outbox-2", req)
	assert.ErrorIs(t, err, domain.ErrDuplicate, "mismo código de barras con otra clave")
}

func TestProductUpdate_NoTocaExistencias(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	uc := usecase.NewProductUseCase(db.Products())
	p, err := uc.Create(ctx, "", dto.CreateProductRequest{Name: "Café", Quantity: decimal.NewFromInt(4)})
	require.NoError(t, err)

	name := "Café molido"
	price := decimal.NewFromInt(9000)
	updated, err := uc.Update(ctx, p.ID, dto.UpdateProductRequest{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.True(t, decimal.NewFromInt(4).Equal(updated.Quantity))

	_, err = uc.Update(ctx, "nope", dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	empty := " "
	_, err = uc.Update(ctx, p.ID, dto.UpdateProductRequest{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductCreate_Validaciones(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.New().Products())
	_, err := uc.Create(context.Background(), "", dto.CreateProductRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Create(context.Background(), "", dto.CreateProductRequest{Name: "x", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
