// internal/domain/cart/service_test.go
package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/your-org/plantstore-backend/internal/config"
	"github.com/your-org/plantstore-backend/internal/domain/plant"
	"github.com/your-org/plantstore-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Checkout: config.CheckoutConfig{
			FreeShippingThreshold: 999,
			ShippingFlatRate:      99,
			CartTTL:               24 * time.Hour,
		},
	}
}

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis, *gorm.DB) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&plant.Plant{}))

	cfg := testConfig()
	return NewService(client, cfg, plant.NewService(db, cfg)), mr, db
}

func seedPlant(t *testing.T, db *gorm.DB, name string, price int64, stock int) plant.Plant {
	t.Helper()
	p := plant.Plant{
		Name:          name,
		Slug:          name,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestGetCartEmptySession(t *testing.T) {
	svc, _, _ := newTestService(t)

	view, err := svc.GetCart(context.Background(), "fresh-session")
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Zero(t, view.Totals.ItemCount)
	require.Zero(t, view.Totals.Subtotal)
}

func TestAddItemTotals(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snake := seedPlant(t, db, "Snake Plant", 599, 50)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 1)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, "sess-1", snake.ID, 2)
	require.NoError(t, err)

	require.Equal(t, 2, view.Totals.LineCount)
	require.Equal(t, 3, view.Totals.ItemCount)
	require.Equal(t, int64(2097), view.Totals.Subtotal)
	require.Equal(t, "Monstera Deliciosa", view.Items[0].Plant.Name)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 2)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, "sess-1", monstera.ID, 3)
	require.NoError(t, err)

	require.Equal(t, 1, view.Totals.LineCount, "same plant stays one line")
	require.Equal(t, 5, view.Totals.ItemCount)
	require.Equal(t, int64(4495), view.Totals.Subtotal)
}

func TestAddItemInsufficientStock(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 31)
	require.Equal(t, apperrors.KindOutOfStock, apperrors.KindOf(err))

	// Combined quantity across calls is what counts
	_, err = svc.AddItem(ctx, "sess-1", monstera.ID, 30)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "sess-1", monstera.ID, 1)
	require.Equal(t, apperrors.KindOutOfStock, apperrors.KindOf(err))

	view, err := svc.GetCart(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, 30, view.Totals.ItemCount, "failed add must not change the cart")
}

func TestAddItemValidation(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 0)
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.AddItem(ctx, "sess-1", 9999, 1)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = svc.AddItem(ctx, "", monstera.ID, 1)
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestAddItemSkipsInactivePlants(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	hidden := plant.Plant{Name: "Retired Fern", Slug: "retired-fern", Price: 100, StockQuantity: 5, IsActive: false}
	require.NoError(t, db.Create(&hidden).Error)

	_, err := svc.AddItem(ctx, "sess-1", hidden.ID, 1)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUpdateQuantity(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 1)
	require.NoError(t, err)

	view, err := svc.UpdateQuantity(ctx, "sess-1", monstera.ID, 4)
	require.NoError(t, err)
	require.Equal(t, 4, view.Totals.ItemCount)

	// Zero removes the line
	view, err = svc.UpdateQuantity(ctx, "sess-1", monstera.ID, 0)
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.UpdateQuantity(ctx, "sess-1", monstera.ID, 2)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUpdateQuantityStockCheck(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "sess-1", monstera.ID, 31)
	require.Equal(t, apperrors.KindOutOfStock, apperrors.KindOf(err))
}

func TestRemoveItemIdempotent(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 1)
	require.NoError(t, err)

	view, err := svc.RemoveItem(ctx, "sess-1", monstera.ID)
	require.NoError(t, err)
	require.Empty(t, view.Items)

	// Removing again is not an error
	view, err = svc.RemoveItem(ctx, "sess-1", monstera.ID)
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestClearCart(t *testing.T) {
	svc, mr, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 2)
	require.NoError(t, err)
	require.True(t, mr.Exists("cart:session:sess-1"))

	require.NoError(t, svc.Clear(ctx, "sess-1"))
	require.False(t, mr.Exists("cart:session:sess-1"))

	// Idempotent
	require.NoError(t, svc.Clear(ctx, "sess-1"))
}

func TestCartTTL(t *testing.T) {
	svc, mr, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, mr.TTL("cart:session:sess-1"))

	// Expiry empties the cart
	mr.FastForward(25 * time.Hour)
	view, err := svc.GetCart(ctx, "sess-1")
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestCartsAreIsolatedBySession(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	_, err := svc.AddItem(ctx, "sess-a", monstera.ID, 1)
	require.NoError(t, err)

	view, err := svc.GetCart(ctx, "sess-b")
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestSnapshot(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snake := seedPlant(t, db, "Snake Plant", 599, 50)

	_, err := svc.AddItem(ctx, "sess-1", monstera.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "sess-1", snake.ID, 2)
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "sess-1", snap.SessionID)
	require.Len(t, snap.Items, 2)
	require.Equal(t, int64(2097), snap.Subtotal)
	require.Equal(t, "Monstera Deliciosa", snap.Items[0].Name)
	require.Equal(t, int64(899), snap.Items[0].UnitPrice)

	// The snapshot is a frozen copy; later cart changes do not touch it
	require.NoError(t, svc.Clear(ctx, "sess-1"))
	require.Len(t, snap.Items, 2)
	require.Equal(t, int64(2097), snap.Subtotal)
}
