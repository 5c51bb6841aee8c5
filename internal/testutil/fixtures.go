package testutil

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront-service/internal/model"
)

// NewDB opens an in-memory SQLite database private to the calling test with
// every service table migrated. A single connection keeps the in-memory
// database alive for the whole test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database object: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.Tables...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateProduct inserts a product with sensible defaults for the given SKU
func CreateProduct(t *testing.T, db *gorm.DB, sku string, price int64) model.Product {
	t.Helper()

	product := model.Product{
		Name:      "Product " + sku,
		SKU:       sku,
		Price:     price,
		Reference: "ref-" + strings.ToLower(sku),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create product %s: %v", sku, err)
	}
	return product
}

// CreateCategory inserts a category
func CreateCategory(t *testing.T, db *gorm.DB, name string) model.Category {
	t.Helper()

	category := model.Category{Name: name}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("Failed to create category %s: %v", name, err)
	}
	return category
}

// CountInvoices returns the number of live invoice rows
func CountInvoices(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&model.Invoice{}).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count invoices: %v", err)
	}
	return count
}

// TransactionBody is a successful gateway create-transaction response. Both
// %s verbs are the gateway reference.
const TransactionBody = `{"success":true,"message":"","data":{"reference":"%s","merchant_ref":"INV-1","payment_method":"BRIVA","amount":5075000,"fee_customer":0,"fee_merchant":4250,"pay_code":"57585748548596587","checkout_url":"https://tripay.example/checkout/%s","status":"UNPAID","expired_time":1735689600}}`

// TransactionJSON renders TransactionBody for the given reference
func TransactionJSON(reference string) string {
	return fmt.Sprintf(TransactionBody, reference, reference)
}
