package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
)

// Snapshot is the live stock and price of a product at read time. It is not a
// reservation.
type Snapshot struct {
	ID     uuid.UUID
	ShopID uuid.UUID
	Name   string
	Stock  int
	Price  decimal.Decimal
}

// ShopDTO is the seller summary embedded in product payloads.
type ShopDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Site *string   `json:"site,omitempty"`
}

// ProductDTO is the browse and detail payload.
type ProductDTO struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Shop       ShopDTO           `json:"shop"`
	Model      *string           `json:"model,omitempty"`
	Category   *string           `json:"category,omitempty"`
	Stock      int               `json:"stock"`
	Price      decimal.Decimal   `json:"price"`
	Parameters map[string]string `json:"parameters"`
}

// ProductListResult is one page of products plus the cursor for the next.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func toProductDTO(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:         p.ID,
		Name:       p.Name,
		Stock:      p.Stock,
		Price:      p.Price,
		Parameters: make(map[string]string, len(p.Parameters)),
	}
	if p.Shop != nil {
		dto.Shop = ShopDTO{ID: p.Shop.ID, Name: p.Shop.Name, Site: p.Shop.Site}
	} else {
		dto.Shop = ShopDTO{ID: p.ShopID}
	}
	if p.Model != nil {
		name := p.Model.Name
		dto.Model = &name
		if p.Model.Category != nil {
			category := p.Model.Category.Name
			dto.Category = &category
		}
	}
	for _, pp := range p.Parameters {
		if pp.Parameter != nil {
			dto.Parameters[pp.Parameter.Name] = pp.Value
		}
	}
	return dto
}

func toSnapshot(p models.Product) *Snapshot {
	return &Snapshot{ID: p.ID, ShopID: p.ShopID, Name: p.Name, Stock: p.Stock, Price: p.Price}
}
