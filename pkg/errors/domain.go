package errors

import "fmt"

const (
	DetailReason    = "reason"
	DetailField     = "field"
	DetailAvailable = "available"
	DetailRequested = "requested"
)

// Reasons distinguish failures that share a transport code.
const (
	ReasonInvalidQuantity         = "invalid_quantity"
	ReasonInsufficientStock       = "insufficient_stock"
	ReasonProductNotFound         = "product_not_found"
	ReasonLineNotFound            = "cart_item_not_found"
	ReasonCartNotFound            = "cart_not_found"
	ReasonOrderNotFound           = "order_not_found"
	ReasonContactNotFound         = "contact_not_found"
	ReasonAddressNotFound         = "delivery_address_not_found"
	ReasonDeliveryAddressRequired = "delivery_address_required"
	ReasonNotificationFailed      = "notification_failed"
	ReasonCartBusy                = "cart_busy"
)

// InvalidQuantity is returned when a quantity or amount is below one.
func InvalidQuantity(field string, got int) *Error {
	return Newf(CodeValidation, "%s must be at least 1", field).
		WithDetail(DetailReason, ReasonInvalidQuantity).
		WithDetail(DetailField, field).
		WithDetail("value", got)
}

// InsufficientStock carries the live stock so the caller can retry with a corrected amount.
func InsufficientStock(available, requested int) *Error {
	return Newf(CodeInsufficientStock, "requested quantity %d exceeds available stock %d", requested, available).
		WithDetail(DetailReason, ReasonInsufficientStock).
		WithDetail(DetailAvailable, available).
		WithDetail(DetailRequested, requested)
}

func ProductNotFound(productID fmt.Stringer) *Error {
	return New(CodeNotFound, "product not found").
		WithDetail(DetailReason, ReasonProductNotFound).
		WithDetail("product_id", productID.String())
}

func LineNotFound() *Error {
	return New(CodeNotFound, "cart item not found").WithDetail(DetailReason, ReasonLineNotFound)
}

func CartNotFound() *Error {
	return New(CodeNotFound, "no active cart").WithDetail(DetailReason, ReasonCartNotFound)
}

func OrderNotFound() *Error {
	return New(CodeNotFound, "order not found or not awaiting confirmation").WithDetail(DetailReason, ReasonOrderNotFound)
}

func ContactNotFound() *Error {
	return New(CodeNotFound, "contact not found").WithDetail(DetailReason, ReasonContactNotFound)
}

func AddressNotFound() *Error {
	return New(CodeNotFound, "delivery address not found").WithDetail(DetailReason, ReasonAddressNotFound)
}

func DeliveryAddressRequired() *Error {
	return New(CodePreconditionFailed, "order has no delivery address").
		WithDetail(DetailReason, ReasonDeliveryAddressRequired).
		WithDetail(DetailField, "delivery_address")
}

// NotificationFailed keeps the confirmation failure distinct from persistence errors.
func NotificationFailed(err error) *Error {
	return Wrap(CodeDependency, err, "order confirmation notification failed").
		WithDetail(DetailReason, ReasonNotificationFailed)
}

func CartBusy() *Error {
	return New(CodeBusy, "cart is being modified by another request").WithDetail(DetailReason, ReasonCartBusy)
}
