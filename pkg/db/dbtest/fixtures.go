package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/enums"
)

// ProductSeed describes a catalog row. Empty Shop, Model or Category values
// fall back to generated names.
type ProductSeed struct {
	Name       string
	Shop       string
	Model      string
	Category   string
	Stock      int
	Price      string
	Parameters map[string]string
}

// SeedProduct inserts a product and the shop, model, category and parameter
// rows it references, reusing rows that already exist by name.
func SeedProduct(t testing.TB, conn *gorm.DB, seed ProductSeed) *models.Product {
	t.Helper()

	if seed.Shop == "" {
		seed.Shop = "shop-" + uuid.NewString()[:8]
	}
	if seed.Price == "" {
		seed.Price = "1.00"
	}

	shop := models.Shop{Name: seed.Shop}
	must(t, conn.Where("name = ?", seed.Shop).FirstOrCreate(&shop).Error)

	product := models.Product{
		Name:   seed.Name,
		ShopID: shop.ID,
		Stock:  seed.Stock,
		Price:  decimal.RequireFromString(seed.Price),
	}

	if seed.Model != "" {
		if seed.Category == "" {
			seed.Category = "uncategorized"
		}
		category := models.Category{Name: seed.Category}
		must(t, conn.Where("name = ?", seed.Category).FirstOrCreate(&category).Error)

		model := models.ProductModel{Name: seed.Model, CategoryID: category.ID}
		must(t, conn.Where("name = ? AND category_id = ?", seed.Model, category.ID).FirstOrCreate(&model).Error)
		product.ModelID = &model.ID
	}
	must(t, conn.Create(&product).Error)

	for name, value := range seed.Parameters {
		param := models.Parameter{Name: name}
		must(t, conn.Where("name = ?", name).FirstOrCreate(&param).Error)
		must(t, conn.Create(&models.ProductParameter{ProductID: product.ID, ParameterID: param.ID, Value: value}).Error)
	}
	return &product
}

// SeedAddress inserts a delivery address owned by userID.
func SeedAddress(t testing.TB, conn *gorm.DB, userID uuid.UUID) *models.DeliveryAddress {
	t.Helper()
	addr := models.DeliveryAddress{UserID: userID, City: "Moscow", Street: "Tverskaya", Building: "7"}
	must(t, conn.Create(&addr).Error)
	return &addr
}

// SeedContact inserts a contact owned by userID.
func SeedContact(t testing.TB, conn *gorm.DB, userID uuid.UUID, typ enums.ContactType, value string) *models.Contact {
	t.Helper()
	contact := models.Contact{UserID: userID, Type: typ, Value: value}
	must(t, conn.Create(&contact).Error)
	return &contact
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
