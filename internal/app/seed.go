package app

import (
	"context"
	"fmt"

	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type demoProduct struct {
	name     string
	slug     string
	category string
	price    string
	sale     string
	stock    int
	sizes    []string
	colors   []string
	featured bool
}

var demoCategories = []models.Category{
	{Name: "Bebek Giyim", Slug: "bebek-giyim", Description: "Bebek kıyafetleri ve giyim ürünleri"},
	{Name: "Kız Çocuk", Slug: "kiz-cocuk", Description: "Kız çocuklar için giyim"},
	{Name: "Erkek Çocuk", Slug: "erkek-cocuk", Description: "Erkek çocuklar için giyim"},
	{Name: "Oyuncak", Slug: "oyuncak", Description: "Eğlenceli oyuncaklar"},
}

var demoProducts = []demoProduct{
	{"Organik Pamuklu Bebek Tulumu", "organik-pamuklu-bebek-tulumu", "bebek-giyim", "249.90", "199.90", 50,
		[]string{"0-3 Ay", "3-6 Ay", "6-9 Ay"}, []string{"Beyaz", "Pembe"}, true},
	{"Unicorn Baskılı Kız Elbise", "unicorn-baskili-kiz-elbise", "kiz-cocuk", "179.90", "", 35,
		[]string{"2-3 Yaş", "3-4 Yaş"}, []string{"Pembe", "Mor"}, true},
	{"Dinozor Desenli Erkek Pijama Takımı", "dinozor-desenli-erkek-pijama", "erkek-cocuk", "149.90", "119.90", 40,
		[]string{"2-3 Yaş", "3-4 Yaş"}, []string{"Yeşil", "Mavi"}, false},
	{"Ahşap Eğitici Bloklar Seti", "ahsap-egitici-bloklar", "oyuncak", "299.90", "", 25,
		[]string{}, []string{}, true},
}

// Seed inserts an administrator and a small demo catalog. Rows that already
// exist, matched by email or slug, are left alone.
func Seed(ctx context.Context, db *gorm.DB, adminEmail, adminPassword string) error {
	log := logger.FromCtx(ctx)
	db = db.WithContext(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), 12)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := models.User{Email: adminEmail, Password: string(hash), Name: "Admin", Role: models.RoleAdmin}
	if err := db.Where(models.User{Email: adminEmail}).FirstOrCreate(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	log.Info("seeded admin user", zap.String("email", admin.Email))

	categoryIDs := make(map[string]string, len(demoCategories))
	for _, c := range demoCategories {
		category := c
		if err := db.Where(models.Category{Slug: c.Slug}).FirstOrCreate(&category).Error; err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.Slug, err)
		}
		categoryIDs[c.Slug] = category.ID
	}

	for _, d := range demoProducts {
		categoryID := categoryIDs[d.category]
		product := models.Product{
			Name:       d.name,
			Slug:       d.slug,
			Price:      decimal.RequireFromString(d.price),
			Stock:      d.stock,
			Images:     []string{},
			Sizes:      d.sizes,
			Colors:     d.colors,
			Featured:   d.featured,
			Active:     true,
			CategoryID: &categoryID,
		}
		if d.sale != "" {
			product.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(d.sale))
		}
		if err := db.Omit("Category").Where(models.Product{Slug: d.slug}).FirstOrCreate(&product).Error; err != nil {
			return fmt.Errorf("failed to seed product %s: %w", d.slug, err)
		}
	}
	log.Info("seeded demo catalog",
		zap.Int("categories", len(demoCategories)),
		zap.Int("products", len(demoProducts)),
	)
	return nil
}
