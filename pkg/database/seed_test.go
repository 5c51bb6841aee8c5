package database_test

import (
	"testing"

	"storefront-service/internal/model"
	"storefront-service/internal/testutil"
	"storefront-service/pkg/database"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	first, err := database.Seed(db)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if first.Categories != 10 || first.Products != 10 {
		t.Fatalf("first run stats = %+v, want 10 categories and 10 products", first)
	}

	second, err := database.Seed(db)
	if err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	if second.Categories != 0 || second.Products != 0 {
		t.Errorf("second run stats = %+v, want nothing inserted", second)
	}

	var laptop model.Product
	if err := db.Preload("Category").Where("sku = ?", "LTP-ABC-002").First(&laptop).Error; err != nil {
		t.Fatalf("seeded laptop not found: %v", err)
	}
	if laptop.Category == nil || laptop.Category.Name != "Elektronik" {
		t.Errorf("laptop category = %+v, want Elektronik", laptop.Category)
	}
	if laptop.Price != 10000000 {
		t.Errorf("laptop price = %d", laptop.Price)
	}
}

func TestMigrateRequiresConnection(t *testing.T) {
	if err := database.Migrate(nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
}
