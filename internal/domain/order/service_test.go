// internal/domain/order/service_test.go
package order

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/your-org/plantstore-backend/internal/config"
	"github.com/your-org/plantstore-backend/internal/domain/cart"
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
			PendingOrderTTL:       30 * time.Minute,
			SweepInterval:         5 * time.Minute,
		},
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One in-memory database, one connection
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&plant.Plant{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
	))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	return NewService(db, testConfig(), nil, testLogger()), db
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

func stockOf(t *testing.T, db *gorm.DB, plantID uint) int {
	t.Helper()
	var p plant.Plant
	require.NoError(t, db.First(&p, plantID).Error)
	return p.StockQuantity
}

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		CustomerInfo: CustomerInfo{
			Name:  "Asha Rao",
			Email: "asha@example.com",
			Phone: "+919876543210",
		},
		ShippingAddress: ShippingAddress{
			Street:  "14 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Zip:     "560001",
			Country: "India",
		},
		PaymentMethod: PaymentMethodUPI,
	}
}

func snapshotFor(sessionID string, plants []plant.Plant, quantities []int) *cart.Snapshot {
	snap := &cart.Snapshot{
		SessionID:  sessionID,
		CapturedAt: time.Now().UTC(),
	}
	for i, p := range plants {
		snap.Items = append(snap.Items, cart.SnapshotItem{
			PlantID:   p.ID,
			Name:      p.Name,
			Quantity:  quantities[i],
			UnitPrice: p.Price,
		})
		snap.Subtotal += p.Price * int64(quantities[i])
	}
	return snap
}

func TestCreatePendingOrder(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snake := seedPlant(t, db, "Snake Plant", 599, 50)

	snap := snapshotFor("sess-1", []plant.Plant{monstera, snake}, []int{1, 2})
	o, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
	require.NoError(t, err)

	require.Equal(t, OrderStatusPendingPayment, o.Status)
	require.Equal(t, PaymentStatusPending, o.PaymentStatus)
	require.Equal(t, int64(2097), o.Subtotal)
	require.Equal(t, int64(0), o.ShippingCost, "subtotal above threshold ships free")
	require.Equal(t, int64(2097), o.Total)
	require.Regexp(t, `^ORD-\d{8}-\d{5}$`, o.OrderNumber)
	require.Len(t, o.Items, 2)

	// Stock reserved at creation
	require.Equal(t, 29, stockOf(t, db, monstera.ID))
	require.Equal(t, 48, stockOf(t, db, snake.ID))

	// Line items are frozen copies
	require.Equal(t, "Monstera Deliciosa", o.Items[0].Name)
	require.Equal(t, int64(899), o.Items[0].UnitPrice)
	require.Equal(t, int64(899), o.Items[0].LineTotal)
	require.Equal(t, int64(1198), o.Items[1].LineTotal)

	reloaded, err := svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.StatusHistory, 1)
	require.Equal(t, OrderStatusPendingPayment, reloaded.StatusHistory[0].Status)
}

func TestCreatePendingOrderFlatShippingBelowThreshold(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	pothos := seedPlant(t, db, "Golden Pothos", 299, 60)

	snap := snapshotFor("sess-1", []plant.Plant{pothos}, []int{2})
	o, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
	require.NoError(t, err)

	require.Equal(t, int64(598), o.Subtotal)
	require.Equal(t, int64(99), o.ShippingCost)
	require.Equal(t, int64(697), o.Total)
}

func TestShippingCostBoundary(t *testing.T) {
	svc, _ := newTestService(t)

	require.Equal(t, int64(99), svc.ShippingCost(999), "exactly at threshold still pays flat rate")
	require.Equal(t, int64(0), svc.ShippingCost(1000))
	require.Equal(t, int64(99), svc.ShippingCost(1))
}

func TestCreatePendingOrderEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePendingOrder(ctx, validRequest(), &cart.Snapshot{SessionID: "sess-1"})
	require.Equal(t, apperrors.KindEmptyCart, apperrors.KindOf(err))

	_, err = svc.CreatePendingOrder(ctx, validRequest(), nil)
	require.Equal(t, apperrors.KindEmptyCart, apperrors.KindOf(err))
}

func TestCreatePendingOrderValidation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snap := snapshotFor("sess-1", []plant.Plant{monstera}, []int{1})

	mutations := []struct {
		name   string
		mutate func(*CreateOrderRequest)
	}{
		{"missing name", func(r *CreateOrderRequest) { r.CustomerInfo.Name = "" }},
		{"missing email", func(r *CreateOrderRequest) { r.CustomerInfo.Email = "" }},
		{"missing phone", func(r *CreateOrderRequest) { r.CustomerInfo.Phone = "" }},
		{"missing street", func(r *CreateOrderRequest) { r.ShippingAddress.Street = "" }},
		{"missing city", func(r *CreateOrderRequest) { r.ShippingAddress.City = "" }},
		{"missing zip", func(r *CreateOrderRequest) { r.ShippingAddress.Zip = "" }},
		{"bad payment method", func(r *CreateOrderRequest) { r.PaymentMethod = "barter" }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := svc.CreatePendingOrder(ctx, req, snap)
			require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}

	// No order rows and no stock movement from failed attempts
	var count int64
	require.NoError(t, db.Model(&Order{}).Count(&count).Error)
	require.Zero(t, count)
	require.Equal(t, 30, stockOf(t, db, monstera.ID))
}

func TestCreatePendingOrderOutOfStock(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	snap := snapshotFor("sess-1", []plant.Plant{monstera}, []int{31})
	_, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
	require.Equal(t, apperrors.KindOutOfStock, apperrors.KindOf(err))

	// The whole transaction rolled back
	require.Equal(t, 30, stockOf(t, db, monstera.ID))
	var count int64
	require.NoError(t, db.Model(&Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestConfirmPaymentCompleted(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snap := snapshotFor("sess-1", []plant.Plant{monstera}, []int{1})
	o, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(ctx, o.ID, ConfirmOutcomeCompleted)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPaid, confirmed.Status)
	require.Equal(t, PaymentStatusCompleted, confirmed.PaymentStatus)

	// Second confirmation must not win again
	_, err = svc.ConfirmPayment(ctx, o.ID, ConfirmOutcomeCompleted)
	require.Equal(t, apperrors.KindAlreadyConfirmed, apperrors.KindOf(err))

	// And must not have changed anything
	reloaded, err := svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPaid, reloaded.Status)
}

func TestConfirmPaymentFailedKeepsStockAndAllowsRetry(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snap := snapshotFor("sess-1", []plant.Plant{monstera}, []int{2})
	o, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
	require.NoError(t, err)
	require.Equal(t, 28, stockOf(t, db, monstera.ID))

	failed, err := svc.ConfirmPayment(ctx, o.ID, ConfirmOutcomeFailed)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPaymentFailed, failed.Status)
	require.Equal(t, PaymentStatusFailed, failed.PaymentStatus)

	// Reservation survives a failed payment
	require.Equal(t, 28, stockOf(t, db, monstera.ID))

	reopened, err := svc.ReopenForPayment(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPendingPayment, reopened.Status)

	confirmed, err := svc.ConfirmPayment(ctx, o.ID, ConfirmOutcomeCompleted)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPaid, confirmed.Status)
}

func TestConfirmPaymentUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ConfirmPayment(context.Background(), 9999, ConfirmOutcomeCompleted)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestConfirmPaymentBadOutcome(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ConfirmPayment(context.Background(), 1, "maybe")
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestReopenForPaymentRejectsWrongState(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snap := snapshotFor("sess-1", []plant.Plant{monstera}, []int{1})
	o, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, o.ID, ConfirmOutcomeCompleted)
	require.NoError(t, err)

	_, err = svc.ReopenForPayment(ctx, o.ID)
	require.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
}

func TestTransitionStatusFulfillmentPath(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snap := snapshotFor("sess-1", []plant.Plant{monstera}, []int{1})
	o, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, o.ID, ConfirmOutcomeCompleted)
	require.NoError(t, err)

	for _, next := range []OrderStatus{OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered} {
		updated, err := svc.TransitionStatus(ctx, o.ID, next, "", "admin")
		require.NoError(t, err)
		require.Equal(t, next, updated.Status)
	}

	// Terminal
	_, err = svc.TransitionStatus(ctx, o.ID, OrderStatusShipped, "", "admin")
	require.Equal(t, apperrors.KindInvalidTransition, apperrors.KindOf(err))
}

func TestTransitionStatusRejectsSkips(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snap := snapshotFor("sess-1", []plant.Plant{monstera}, []int{1})
	o, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, o.ID, OrderStatusDelivered, "", "admin")
	require.Equal(t, apperrors.KindInvalidTransition, apperrors.KindOf(err))

	_, err = svc.TransitionStatus(ctx, o.ID, OrderStatusShipped, "", "admin")
	require.Equal(t, apperrors.KindInvalidTransition, apperrors.KindOf(err))
}

func TestCancelOrderReleasesStock(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)
	snap := snapshotFor("sess-1", []plant.Plant{monstera}, []int{3})
	o, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
	require.NoError(t, err)
	require.Equal(t, 27, stockOf(t, db, monstera.ID))

	cancelled, err := svc.CancelOrder(ctx, o.ID, "changed my mind", "customer")
	require.NoError(t, err)
	require.Equal(t, OrderStatusCancelled, cancelled.Status)
	require.Equal(t, 30, stockOf(t, db, monstera.ID))

	// Cancelling twice is rejected
	_, err = svc.CancelOrder(ctx, o.ID, "again", "customer")
	require.Equal(t, apperrors.KindInvalidTransition, apperrors.KindOf(err))
	require.Equal(t, 30, stockOf(t, db, monstera.ID), "stock must not be released twice")
}

func TestListOrders(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 100)
	for i := 0; i < 5; i++ {
		snap := snapshotFor("sess-1", []plant.Plant{monstera}, []int{1})
		o, err := svc.CreatePendingOrder(ctx, validRequest(), snap)
		require.NoError(t, err)
		if i < 2 {
			_, err = svc.ConfirmPayment(ctx, o.ID, ConfirmOutcomeCompleted)
			require.NoError(t, err)
		}
	}

	all, err := svc.List(ctx, &OrderListRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(5), all.Pagination.Total)
	require.Len(t, all.Orders, 5)

	paid, err := svc.List(ctx, &OrderListRequest{Page: 1, Limit: 10, Status: OrderStatusPaid})
	require.NoError(t, err)
	require.Equal(t, int64(2), paid.Pagination.Total)

	paged, err := svc.List(ctx, &OrderListRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, paged.Orders, 2)
	require.True(t, paged.Pagination.HasNext)
	require.True(t, paged.Pagination.HasPrev)
}

func TestSweeperCancelsExpiredPendingOrders(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	monstera := seedPlant(t, db, "Monstera Deliciosa", 899, 30)

	snapStale := snapshotFor("sess-1", []plant.Plant{monstera}, []int{2})
	stale, err := svc.CreatePendingOrder(ctx, validRequest(), snapStale)
	require.NoError(t, err)

	snapFresh := snapshotFor("sess-2", []plant.Plant{monstera}, []int{1})
	fresh, err := svc.CreatePendingOrder(ctx, validRequest(), snapFresh)
	require.NoError(t, err)

	snapPaid := snapshotFor("sess-3", []plant.Plant{monstera}, []int{1})
	paid, err := svc.CreatePendingOrder(ctx, validRequest(), snapPaid)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, paid.ID, ConfirmOutcomeCompleted)
	require.NoError(t, err)

	require.Equal(t, 26, stockOf(t, db, monstera.ID))

	// Age the stale and paid orders past the TTL
	old := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, db.Model(&Order{}).Where("id IN ?", []uint{stale.ID, paid.ID}).
		UpdateColumn("created_at", old).Error)

	sweeper := NewSweeper(svc, testLogger())
	n, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := svc.GetOrder(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCancelled, got.Status)

	// Only the expired pending order's stock came back
	require.Equal(t, 28, stockOf(t, db, monstera.ID))

	gotFresh, err := svc.GetOrder(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPendingPayment, gotFresh.Status)

	gotPaid, err := svc.GetOrder(ctx, paid.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPaid, gotPaid.Status, "aged but paid orders are untouched")
}
