// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/plantstore-backend/internal/config"
	"github.com/your-org/plantstore-backend/internal/domain/plant"
	"github.com/your-org/plantstore-backend/internal/pkg/apperrors"
)

// Cart mutations go through a WATCH-guarded read-modify-write so two
// concurrent requests against the same session cannot lose updates.
const casRetries = 5

// Service handles cart business logic
type Service struct {
	redisClient  *redis.Client
	config       *config.Config
	plantService *plant.Service
}

// NewService creates a new cart service
func NewService(redisClient *redis.Client, cfg *config.Config, plantService *plant.Service) *Service {
	return &Service{
		redisClient:  redisClient,
		config:       cfg,
		plantService: plantService,
	}
}

// GetCart retrieves the cart view for a session
func (s *Service) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, c)
}

// AddItem adds a plant line to the cart, or increments an existing line.
// The combined quantity must not exceed available stock.
func (s *Service) AddItem(ctx context.Context, sessionID string, plantID uint, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	p, err := s.plantService.GetPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, sessionID, func(c *Cart) error {
		newQuantity := quantity
		if i := c.findItem(plantID); i >= 0 {
			newQuantity += c.Items[i].Quantity
		}
		if !p.InStock(newQuantity) {
			return apperrors.OutOfStock("insufficient stock for %q: available %d, requested %d",
				p.Name, p.StockQuantity, newQuantity)
		}

		if i := c.findItem(plantID); i >= 0 {
			c.Items[i].Quantity = newQuantity
			c.Items[i].Price = p.Price // Refresh in case the price changed
		} else {
			c.Items = append(c.Items, CartItem{
				PlantID:  plantID,
				Quantity: quantity,
				Price:    p.Price,
				AddedAt:  time.Now().UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, sessionID)
}

// UpdateQuantity sets the quantity of an existing line directly.
// A quantity of zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, plantID uint, quantity int) (*CartView, error) {
	var p *plant.Plant
	if quantity > 0 {
		var err error
		p, err = s.plantService.GetPlant(ctx, plantID)
		if err != nil {
			return nil, err
		}
		if !p.InStock(quantity) {
			return nil, apperrors.OutOfStock("insufficient stock for %q: available %d, requested %d",
				p.Name, p.StockQuantity, quantity)
		}
	}

	err := s.mutate(ctx, sessionID, func(c *Cart) error {
		i := c.findItem(plantID)
		if i < 0 {
			return apperrors.NotFound("plant %d is not in the cart", plantID)
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
		c.Items[i].Quantity = quantity
		c.Items[i].Price = p.Price
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, sessionID)
}

// RemoveItem deletes a line if present. Removing an absent line is not
// an error.
func (s *Service) RemoveItem(ctx context.Context, sessionID string, plantID uint) (*CartView, error) {
	err := s.mutate(ctx, sessionID, func(c *Cart) error {
		if i := c.findItem(plantID); i >= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, sessionID)
}

// Clear empties the cart for the session. Idempotent.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.Validation("session ID required")
	}
	if err := s.redisClient.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return apperrors.Storage(err, "failed to clear cart for session %s", sessionID)
	}
	return nil
}

// Snapshot captures the current cart as a frozen copy for order
// creation. The snapshot never changes once taken.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	view, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		SessionID:  sessionID,
		Items:      make([]SnapshotItem, 0, len(view.Items)),
		CapturedAt: time.Now().UTC(),
	}
	for _, item := range view.Items {
		si := SnapshotItem{
			PlantID:   item.PlantID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		}
		if item.Plant != nil {
			si.Name = item.Plant.Name
			si.ImageURL = item.Plant.ImageURL
		}
		snapshot.Items = append(snapshot.Items, si)
		snapshot.Subtotal += si.UnitPrice * int64(si.Quantity)
	}

	return snapshot, nil
}

// Private helper methods

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (s *Service) loadCart(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, apperrors.Validation("session ID required")
	}

	data, err := s.redisClient.Get(ctx, cartKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		// Cart doesn't exist yet, return an empty one
		now := time.Now().UTC()
		return &Cart{
			SessionID: sessionID,
			Items:     []CartItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	} else if err != nil {
		return nil, apperrors.Storage(err, "failed to load cart for session %s", sessionID)
	}

	var c Cart
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, apperrors.Storage(err, "failed to decode cart for session %s", sessionID)
	}
	return &c, nil
}

// mutate applies fn to the cart under optimistic concurrency control.
// The write aborts and retries when another request touched the key
// between read and write.
func (s *Service) mutate(ctx context.Context, sessionID string, fn func(*Cart) error) error {
	if sessionID == "" {
		return apperrors.Validation("session ID required")
	}
	key := cartKey(sessionID)

	txn := func(tx *redis.Tx) error {
		var c *Cart
		data, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			now := time.Now().UTC()
			c = &Cart{SessionID: sessionID, Items: []CartItem{}, CreatedAt: now, UpdatedAt: now}
		} else if err != nil {
			return apperrors.Storage(err, "failed to load cart for session %s", sessionID)
		} else {
			c = &Cart{}
			if err := json.Unmarshal([]byte(data), c); err != nil {
				return apperrors.Storage(err, "failed to decode cart for session %s", sessionID)
			}
		}

		if err := fn(c); err != nil {
			return err
		}
		c.UpdatedAt = time.Now().UTC()

		encoded, err := json.Marshal(c)
		if err != nil {
			return apperrors.Storage(err, "failed to encode cart for session %s", sessionID)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(c.Items) == 0 {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, encoded, s.config.Checkout.CartTTL)
			}
			return nil
		})
		return err
	}

	for i := 0; i < casRetries; i++ {
		err := s.redisClient.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return apperrors.Storage(redis.TxFailedErr, "cart update contention for session %s", sessionID)
}

func (s *Service) buildView(ctx context.Context, c *Cart) (*CartView, error) {
	view := &CartView{
		SessionID: c.SessionID,
		Items:     make([]CartItemView, 0, len(c.Items)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	for _, item := range c.Items {
		iv := CartItemView{
			PlantID:  item.PlantID,
			Quantity: item.Quantity,
			Price:    item.Price,
			AddedAt:  item.AddedAt,
		}
		// Best-effort denormalization; a delisted plant keeps its line
		if p, err := s.plantService.GetPlant(ctx, item.PlantID); err == nil {
			iv.Plant = p
		}
		view.Items = append(view.Items, iv)

		view.Totals.LineCount++
		view.Totals.ItemCount += item.Quantity
		view.Totals.Subtotal += item.Price * int64(item.Quantity)
	}

	return view, nil
}
