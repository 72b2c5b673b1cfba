package database

import (
	"context"
	"testing"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories/memory"
	"kohisync_backend/internal/services"
	"kohisync_backend/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDemoCatalogue(t *testing.T) {
	c, err := LoadDemoCatalogue()
	require.NoError(t, err)
	require.Len(t, c.Products, 14)
	require.Len(t, c.Staff, 2)

	americano := c.Products[0]
	assert.Equal(t, "Americano", americano.Name)
	assert.Equal(t, models.CategoryBeverage, americano.Category)
	assert.True(t, decimal.NewFromInt(80).Equal(americano.Price))
	assert.Equal(t, 50, americano.Stock)
}

func TestSeedDemoData_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tokens, err := utils.NewTokenManager("seed-secret", 0)
	require.NoError(t, err)
	auth := services.NewAuthService(store, tokens)
	inventory := services.NewInventoryService(store, services.Observers{})

	require.NoError(t, SeedDemoData(ctx, auth, inventory))
	require.NoError(t, SeedDemoData(ctx, auth, inventory))

	listing, err := inventory.ListInventory(ctx)
	require.NoError(t, err)
	assert.Len(t, listing.Products, 14)

	resp, err := auth.Login(ctx, services.LoginRequest{Username: "cashier1", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, resp.User.Role)
}
