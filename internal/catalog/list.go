package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orders-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
// Text filters are case-insensitive substrings; the price bounds are inclusive.
type ProductListFilters struct {
	PriceFrom      *decimal.Decimal
	PriceTo        *decimal.Decimal
	Shop           string
	Model          string
	Category       string
	ParameterName  string
	ParameterValue string
	Search         string
}

// ListProductsInput captures filters and cursor pagination for List.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}
