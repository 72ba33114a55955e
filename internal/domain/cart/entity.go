// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/plantstore-backend/internal/domain/plant"
)

// Cart is the session-scoped cart document stored in Redis.
// One cart per session, keyed by the opaque session identifier.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem represents one plant line in a cart.
// Price is the unit price recorded at add time, in whole rupees.
type CartItem struct {
	PlantID  uint      `json:"plant_id"`
	Quantity int       `json:"quantity"`
	Price    int64     `json:"price"`
	AddedAt  time.Time `json:"added_at"`
}

// findItem returns the index of the line for plantID, -1 if absent
func (c *Cart) findItem(plantID uint) int {
	for i := range c.Items {
		if c.Items[i].PlantID == plantID {
			return i
		}
	}
	return -1
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	LineCount int   `json:"line_count"` // Number of unique plant lines
	ItemCount int   `json:"item_count"` // Sum of all quantities
	Subtotal  int64 `json:"subtotal"`   // Sum of unit price x quantity
}

// CartItemView is a cart line with the plant denormalized for display
type CartItemView struct {
	PlantID  uint         `json:"plant_id"`
	Quantity int          `json:"quantity"`
	Price    int64        `json:"price"`
	Plant    *plant.Plant `json:"plant,omitempty"`
	AddedAt  time.Time    `json:"added_at"`
}

// CartView represents a cart with items and computed totals
type CartView struct {
	SessionID string         `json:"session_id"`
	Items     []CartItemView `json:"items"`
	Totals    CartTotals     `json:"totals"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SnapshotItem is one frozen line of a cart at order-creation time
type SnapshotItem struct {
	PlantID   uint   `json:"plant_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Snapshot is the full cart state captured at checkout time. Later cart
// mutations never touch a snapshot already handed to the order manager.
type Snapshot struct {
	SessionID  string         `json:"session_id"`
	Items      []SnapshotItem `json:"items"`
	Subtotal   int64          `json:"subtotal"`
	CapturedAt time.Time      `json:"captured_at"`
}
