package database

import (
	"fmt"

	"gorm.io/gorm"

	"storefront-service/internal/model"
)

var seedCategories = []string{
	"Elektronik",
	"Fashion Pria",
	"Fashion Wanita",
	"Kecantikan & Kesehatan",
	"Rumah & Taman",
	"Olahraga & Outdoor",
	"Makanan & Minuman",
	"Buku & Alat Tulis",
	"Otomotif",
	"Mainan & Hobi",
}

type seedProduct struct {
	category  string
	name      string
	sku       string
	price     int64
	reference string
}

var seedProducts = []seedProduct{
	{"Elektronik", "Smartphone XYZ", "SPH-XYZ-001", 5000000, "Ref001"},
	{"Elektronik", "Laptop ABC", "LTP-ABC-002", 10000000, "Ref002"},
	{"Fashion Pria", "Kaos Polos", "KOS-POL-003", 75000, "Ref003"},
	{"Fashion Pria", "Celana Jeans", "CLN-JNS-004", 150000, "Ref004"},
	{"Kecantikan & Kesehatan", "Lipstik Merah", "LPS-MRH-005", 120000, "Ref005"},
	{"Kecantikan & Kesehatan", "Parfum Wanita", "PRF-WNT-006", 300000, "Ref006"},
	{"Rumah & Taman", "Meja Kayu", "MJA-KYW-007", 800000, "Ref007"},
	{"Rumah & Taman", "Kursi Lipat", "KRS-LPT-008", 200000, "Ref008"},
	{"Olahraga & Outdoor", "Sepeda Gunung", "SPD-GNT-009", 2500000, "Ref009"},
	{"Olahraga & Outdoor", "Tenda Camping", "TND-CMP-010", 600000, "Ref010"},
}

// SeedStats reports how many rows a seed run inserted
type SeedStats struct {
	Categories int
	Products   int
}

// Seed inserts the demo catalog. Rows are matched by category name and SKU,
// so running it twice inserts nothing new.
func Seed(conn *gorm.DB) (SeedStats, error) {
	var stats SeedStats

	err := conn.Transaction(func(tx *gorm.DB) error {
		categoryIDs := make(map[string]uint, len(seedCategories))
		for _, name := range seedCategories {
			var category model.Category
			found := tx.Unscoped().Where("name = ?", name).Limit(1).Find(&category)
			if found.Error != nil {
				return fmt.Errorf("seed category %q: %w", name, found.Error)
			}
			if found.RowsAffected == 0 {
				category = model.Category{Name: name}
				if err := tx.Create(&category).Error; err != nil {
					return fmt.Errorf("seed category %q: %w", name, err)
				}
				stats.Categories++
			}
			categoryIDs[name] = category.ID
		}

		for _, p := range seedProducts {
			var existing int64
			if err := tx.Unscoped().Model(&model.Product{}).Where("sku = ?", p.sku).Count(&existing).Error; err != nil {
				return fmt.Errorf("seed product %q: %w", p.sku, err)
			}
			if existing > 0 {
				continue
			}

			categoryID := categoryIDs[p.category]
			product := model.Product{
				CategoryID: &categoryID,
				Name:       p.name,
				SKU:        p.sku,
				Price:      p.price,
				Reference:  p.reference,
			}
			if err := tx.Create(&product).Error; err != nil {
				return fmt.Errorf("seed product %q: %w", p.sku, err)
			}
			stats.Products++
		}
		return nil
	})

	return stats, err
}
