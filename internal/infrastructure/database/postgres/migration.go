// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/plantstore-backend/internal/domain/order"
	"github.com/your-org/plantstore-backend/internal/domain/payment"
	"github.com/your-org/plantstore-backend/internal/domain/plant"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: plants before orders, orders before attempts
	models := []interface{}{
		&plant.Plant{},

		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},

		&payment.Attempt{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Plant indexes
		"CREATE INDEX IF NOT EXISTS idx_plants_active_price ON plants(is_active, price)",
		"CREATE INDEX IF NOT EXISTS idx_plants_created_at ON plants(created_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_session_created ON orders(session_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",

		// Order item indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_plant ON order_items(plant_id)",

		// Status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",

		// Payment attempt indexes
		"CREATE INDEX IF NOT EXISTS idx_payment_attempts_order_outcome ON payment_attempts(order_id, outcome)",
		"CREATE INDEX IF NOT EXISTS idx_payment_attempts_created_at ON payment_attempts(created_at DESC)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
		}
	}

	log.Println("✅ Database indexes ready")
	return nil
}

// SeedInitialData inserts the development plant catalog
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedPlants(); err != nil {
		return fmt.Errorf("failed to seed plants: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedPlants() error {
	plants := []plant.Plant{
		{
			Name:           "Monstera Deliciosa",
			Slug:           "monstera-deliciosa",
			ScientificName: "Monstera deliciosa",
			Description:    "The classic swiss cheese plant. Fast growing with dramatic split leaves, happy in bright indirect light.",
			Price:          899,
			StockQuantity:  30,
			ImageURL:       "/images/plants/monstera-deliciosa.jpg",
			CareLevel:      "easy",
			IsActive:       true,
		},
		{
			Name:           "Snake Plant",
			Slug:           "snake-plant",
			ScientificName: "Dracaena trifasciata",
			Description:    "Nearly indestructible. Tolerates low light and irregular watering, ideal for beginners and offices.",
			Price:          599,
			StockQuantity:  50,
			ImageURL:       "/images/plants/snake-plant.jpg",
			CareLevel:      "easy",
			IsActive:       true,
		},
		{
			Name:           "Fiddle Leaf Fig",
			Slug:           "fiddle-leaf-fig",
			ScientificName: "Ficus lyrata",
			Description:    "Statement plant with large violin shaped leaves. Needs consistent bright light and dislikes being moved.",
			Price:          1499,
			StockQuantity:  12,
			ImageURL:       "/images/plants/fiddle-leaf-fig.jpg",
			CareLevel:      "expert",
			IsActive:       true,
		},
		{
			Name:           "Peace Lily",
			Slug:           "peace-lily",
			ScientificName: "Spathiphyllum wallisii",
			Description:    "Elegant white blooms and glossy foliage. Droops visibly when thirsty, so it tells you when to water.",
			Price:          449,
			StockQuantity:  40,
			ImageURL:       "/images/plants/peace-lily.jpg",
			CareLevel:      "easy",
			IsActive:       true,
		},
		{
			Name:           "Rubber Plant",
			Slug:           "rubber-plant",
			ScientificName: "Ficus elastica",
			Description:    "Deep burgundy leaves with a high shine. Grows into an impressive indoor tree with minimal fuss.",
			Price:          749,
			StockQuantity:  25,
			ImageURL:       "/images/plants/rubber-plant.jpg",
			CareLevel:      "moderate",
			IsActive:       true,
		},
		{
			Name:           "Golden Pothos",
			Slug:           "golden-pothos",
			ScientificName: "Epipremnum aureum",
			Description:    "Trailing vine with marbled golden leaves. Thrives on neglect and propagates easily in water.",
			Price:          299,
			StockQuantity:  60,
			ImageURL:       "/images/plants/golden-pothos.jpg",
			CareLevel:      "easy",
			IsActive:       true,
		},
		{
			Name:           "Calathea Orbifolia",
			Slug:           "calathea-orbifolia",
			ScientificName: "Goeppertia orbifolia",
			Description:    "Broad striped leaves that fold up at night. Prefers high humidity and filtered water.",
			Price:          1099,
			StockQuantity:  8,
			ImageURL:       "/images/plants/calathea-orbifolia.jpg",
			CareLevel:      "expert",
			IsActive:       true,
		},
		{
			Name:           "ZZ Plant",
			Slug:           "zz-plant",
			ScientificName: "Zamioculcas zamiifolia",
			Description:    "Waxy dark green leaflets on upright stems. Survives weeks without water thanks to its rhizomes.",
			Price:          649,
			StockQuantity:  35,
			ImageURL:       "/images/plants/zz-plant.jpg",
			CareLevel:      "easy",
			IsActive:       true,
		},
	}

	for _, p := range plants {
		var existing plant.Plant
		result := m.db.Where("slug = ?", p.Slug).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&p).Error; err != nil {
				return err
			}
			log.Printf("✅ Created plant: %s", p.Name)
		}
	}

	return nil
}
