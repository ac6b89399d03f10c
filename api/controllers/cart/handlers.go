package cart

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orders-backend/api/middleware"
	"github.com/angelmondragon/orders-backend/api/responses"
	"github.com/angelmondragon/orders-backend/api/validators"
	cartsvc "github.com/angelmondragon/orders-backend/internal/cart"
	"github.com/angelmondragon/orders-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
	"github.com/angelmondragon/orders-backend/pkg/logger"
)

// Quantity and Amount default to 1 when omitted.
type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity"`
}

type amountRequest struct {
	Amount *int `json:"amount"`
}

func orOne(v *int) int {
	if v == nil {
		return 1
	}
	return *v
}

type deliveryAddressRequest struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

// cartView flattens the active order; Active is false when the user has no cart yet.
type cartView struct {
	Active bool `json:"active"`
	*orders.OrderDTO
	Items []orders.LineDTO `json:"items"`
	Total decimal.Decimal  `json:"total"`
}

func newCartView(cart *orders.OrderDTO) cartView {
	if cart == nil {
		return cartView{Items: []orders.LineDTO{}, Total: decimal.Zero}
	}
	return cartView{Active: true, OrderDTO: cart, Items: cart.Items, Total: cart.Total}
}

// CartFetch returns the active cart, or an empty inactive cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := middleware.AuthenticatedUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, _, err := svc.GetActive(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(cart))
	}
}

// CartAddItem merges quantity into the cart line for a product.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := middleware.AuthenticatedUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Add(r.Context(), userID, payload.ProductID, orOne(payload.Quantity))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func CartIncreaseItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, lineID, err := lineRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload amountRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.Increase(r.Context(), userID, lineID, orOne(payload.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"item": line})
	}
}

// CartDecreaseItem reduces a line; a line reaching zero is removed and the
// response says so.
func CartDecreaseItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, lineID, err := lineRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload amountRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Decrease(r.Context(), userID, lineID, orOne(payload.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, lineID, err := lineRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), userID, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func CartSetDeliveryAddress(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := middleware.AuthenticatedUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deliveryAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AssignDeliveryAddress(r.Context(), userID, payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(cart))
	}
}

func lineRequest(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	userID, err := middleware.AuthenticatedUser(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	lineID, err := validators.ParseUUIDParam(r, "itemId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, lineID, nil
}
