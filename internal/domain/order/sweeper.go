// internal/domain/order/sweeper.go
package order

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/plantstore-backend/internal/domain/plant"
	"github.com/your-org/plantstore-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Sweeper cancels orders stuck in pending_payment past their TTL and
// returns their reserved stock.
type Sweeper struct {
	service  *Service
	ttl      time.Duration
	interval time.Duration
	log      *logrus.Logger
}

// NewSweeper creates a sweeper from the checkout configuration
func NewSweeper(service *Service, log *logrus.Logger) *Sweeper {
	if log == nil {
		log = logrus.New()
	}
	return &Sweeper{
		service:  service,
		ttl:      service.config.Checkout.PendingOrderTTL,
		interval: service.config.Checkout.SweepInterval,
		log:      log,
	}
}

// Run sweeps on a fixed interval until the context is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.WithFields(logrus.Fields{
		"ttl":      s.ttl,
		"interval": s.interval,
	}).Info("Order sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Order sweeper stopped")
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				s.log.WithError(err).Error("Order sweep failed")
			} else if n > 0 {
				s.log.WithField("cancelled", n).Info("Expired pending orders cancelled")
			}
		}
	}
}

// SweepOnce cancels every pending_payment order older than the TTL and
// returns how many were cancelled. Each order is handled in its own
// transaction so one failure does not block the rest of the sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)

	var stale []Order
	err := s.service.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND created_at < ?", OrderStatusPendingPayment, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, apperrors.Storage(err, "failed to query expired orders")
	}

	cancelled := 0
	for i := range stale {
		o := &stale[i]
		if err := s.expire(ctx, o); err != nil {
			s.log.WithError(err).WithField("order_number", o.OrderNumber).Warn("Failed to expire order")
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *Sweeper) expire(ctx context.Context, o *Order) error {
	return s.service.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", o.ID, OrderStatusPendingPayment).
			Update("status", OrderStatusCancelled)
		if result.Error != nil {
			return apperrors.Storage(result.Error, "failed to cancel order %d", o.ID)
		}
		if result.RowsAffected == 0 {
			// Paid or cancelled between query and expiry, nothing to do
			return nil
		}

		for _, item := range o.Items {
			if err := plant.Release(tx, item.PlantID, item.Quantity); err != nil {
				return err
			}
		}

		history := OrderStatusHistory{
			OrderID:   o.ID,
			Status:    OrderStatusCancelled,
			Comment:   "Order cancelled: payment window expired",
			CreatedBy: "sweeper",
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Storage(err, "failed to record status history")
		}
		return nil
	})
}
