package controllers

import (
	"net/http"

	"github.com/angelmondragon/orders-backend/api/responses"
	"github.com/angelmondragon/orders-backend/api/validators"
	"github.com/angelmondragon/orders-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/pagination"
	"github.com/angelmondragon/orders-backend/pkg/types"
)

const maxFilterLen = 120

// ProductList serves the filtered, cursor-paginated catalog.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceFrom, err := validators.ParseQueryDecimal(r, "price_from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceTo, err := validators.ParseQueryDecimal(r, "price_to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.ListProductsInput{
			Filters: catalog.ProductListFilters{
				PriceFrom:      priceFrom,
				PriceTo:        priceTo,
				Shop:           validators.ParseQueryString(r, "shop", maxFilterLen),
				Model:          validators.ParseQueryString(r, "model", maxFilterLen),
				Category:       validators.ParseQueryString(r, "category", maxFilterLen),
				ParameterName:  validators.ParseQueryString(r, "parameter_name", maxFilterLen),
				ParameterValue: validators.ParseQueryString(r, "parameter_value", maxFilterLen),
				Search:         validators.ParseQueryString(r, "search", maxFilterLen),
			},
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: validators.ParseQueryString(r, "cursor", 0),
			},
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.Page[catalog.ProductDTO]{Items: result.Products, NextCursor: result.NextCursor})
	}
}

// ProductDetail returns one product with its shop, model, category and parameters.
func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
