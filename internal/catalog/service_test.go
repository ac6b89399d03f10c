package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
	"github.com/angelmondragon/orders-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func seedCatalog(t *testing.T, conn *gorm.DB) {
	t.Helper()
	dbtest.SeedProduct(t, conn, dbtest.ProductSeed{
		Name: "Aurora X1", Shop: "Northwind", Model: "X1", Category: "Phones",
		Stock: 5, Price: "10.00", Parameters: map[string]string{"color": "black", "memory": "128GB"},
	})
	dbtest.SeedProduct(t, conn, dbtest.ProductSeed{
		Name: "Aurora X1", Shop: "Contoso", Model: "X1", Category: "Phones",
		Stock: 2, Price: "12.50", Parameters: map[string]string{"color": "white"},
	})
	dbtest.SeedProduct(t, conn, dbtest.ProductSeed{
		Name: "Breeze Cable", Shop: "Contoso", Model: "USB-C 1m", Category: "Accessories",
		Stock: 100, Price: "5.50",
	})
}

func TestLookupReturnsLiveSnapshot(t *testing.T) {
	svc, conn := newTestService(t)
	product := dbtest.SeedProduct(t, conn, dbtest.ProductSeed{Name: "Lamp", Stock: 3, Price: "19.99"})

	snap, err := svc.Lookup(context.Background(), nil, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ShopID, snap.ShopID)
	assert.Equal(t, 3, snap.Stock)
	assert.True(t, snap.Price.Equal(decimal.RequireFromString("19.99")))

	require.NoError(t, conn.Model(product).Update("stock", 1).Error)
	snap, err = svc.Lookup(context.Background(), conn, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Stock)
}

func TestLookupUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Lookup(context.Background(), nil, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, pkgerrors.ReasonProductNotFound, pkgerrors.As(err).Details()[pkgerrors.DetailReason])
}

func TestGetIncludesAssociations(t *testing.T) {
	svc, conn := newTestService(t)
	product := dbtest.SeedProduct(t, conn, dbtest.ProductSeed{
		Name: "Aurora X1", Shop: "Northwind", Model: "X1", Category: "Phones",
		Stock: 5, Price: "10.00", Parameters: map[string]string{"color": "black"},
	})

	dto, err := svc.Get(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Northwind", dto.Shop.Name)
	require.NotNil(t, dto.Model)
	assert.Equal(t, "X1", *dto.Model)
	require.NotNil(t, dto.Category)
	assert.Equal(t, "Phones", *dto.Category)
	assert.Equal(t, map[string]string{"color": "black"}, dto.Parameters)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListFilters(t *testing.T) {
	svc, conn := newTestService(t)
	seedCatalog(t, conn)

	price := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}

	cases := []struct {
		name    string
		filters ProductListFilters
		want    []string
	}{
		{name: "no filters", want: []string{"Aurora X1", "Aurora X1", "Breeze Cable"}},
		{name: "price range inclusive", filters: ProductListFilters{PriceFrom: price("5.50"), PriceTo: price("10.00")}, want: []string{"Aurora X1", "Breeze Cable"}},
		{name: "shop substring", filters: ProductListFilters{Shop: "north"}, want: []string{"Aurora X1"}},
		{name: "category", filters: ProductListFilters{Category: "ACCESS"}, want: []string{"Breeze Cable"}},
		{name: "model", filters: ProductListFilters{Model: "usb"}, want: []string{"Breeze Cable"}},
		{name: "parameter pair", filters: ProductListFilters{ParameterName: "color", ParameterValue: "white"}, want: []string{"Aurora X1"}},
		{name: "search across shop", filters: ProductListFilters{Search: "contoso"}, want: []string{"Aurora X1", "Breeze Cable"}},
		{name: "search across category", filters: ProductListFilters{Search: "phone"}, want: []string{"Aurora X1", "Aurora X1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.List(context.Background(), ListProductsInput{Filters: tc.filters})
			require.NoError(t, err)
			names := make([]string, 0, len(res.Products))
			for _, p := range res.Products {
				names = append(names, p.Name)
			}
			assert.Equal(t, tc.want, names)
		})
	}
}

func TestListRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	from := decimal.NewFromInt(10)
	to := decimal.NewFromInt(5)

	_, err := svc.List(context.Background(), ListProductsInput{Filters: ProductListFilters{PriceFrom: &from, PriceTo: &to}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(context.Background(), ListProductsInput{Filters: ProductListFilters{ParameterName: "color"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(context.Background(), ListProductsInput{Pagination: pagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListPaginatesWithCursor(t *testing.T) {
	svc, conn := newTestService(t)
	seedCatalog(t, conn)

	first, err := svc.List(context.Background(), ListProductsInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(context.Background(), ListProductsInput{Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Equal(t, "Breeze Cable", second.Products[0].Name)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, p := range append(first.Products, second.Products...) {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
}
