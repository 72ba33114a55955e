// internal/domain/plant/service.go
package plant

import (
	"context"
	"errors"

	"github.com/your-org/plantstore-backend/internal/config"
	"github.com/your-org/plantstore-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles plant catalog lookups and stock accounting
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new plant service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// GetPlant retrieves a single active plant by ID
func (s *Service) GetPlant(ctx context.Context, id uint) (*Plant, error) {
	var p Plant
	result := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("plant %d not found", id)
		}
		return nil, apperrors.Storage(result.Error, "failed to retrieve plant %d", id)
	}
	return &p, nil
}

// ListPlants retrieves active plants for the storefront
func (s *Service) ListPlants(ctx context.Context, limit, offset int) ([]Plant, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var plants []Plant
	result := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name asc").
		Limit(limit).Offset(offset).
		Find(&plants)
	if result.Error != nil {
		return nil, apperrors.Storage(result.Error, "failed to list plants")
	}
	return plants, nil
}

// Reserve decrements stock for a pending order inside the caller's
// transaction. The decrement is conditional on availability so two
// concurrent checkouts cannot both pass the stock check.
func Reserve(tx *gorm.DB, plantID uint, quantity int) error {
	result := tx.Model(&Plant{}).
		Where("id = ? AND stock_quantity >= ?", plantID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))

	if result.Error != nil {
		return apperrors.Storage(result.Error, "failed to reserve stock for plant %d", plantID)
	}
	if result.RowsAffected == 0 {
		return apperrors.OutOfStock("insufficient stock for plant %d", plantID)
	}
	return nil
}

// Release returns reserved stock when an order is cancelled or expires
func Release(tx *gorm.DB, plantID uint, quantity int) error {
	result := tx.Model(&Plant{}).
		Where("id = ?", plantID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))

	if result.Error != nil {
		return apperrors.Storage(result.Error, "failed to release stock for plant %d", plantID)
	}
	return nil
}
