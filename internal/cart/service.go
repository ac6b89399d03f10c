package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/internal/catalog"
	"github.com/angelmondragon/orders-backend/internal/locks"
	"github.com/angelmondragon/orders-backend/internal/orders"
	"github.com/angelmondragon/orders-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/metrics"
)

const detailInCart = "in_cart"

// Operation labels for metrics.
const (
	opAdd      = "add"
	opIncrease = "increase"
	opDecrease = "decrease"
	opRemove   = "remove"
	opAddress  = "assign_address"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type addressFinder interface {
	FindOwned(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*models.DeliveryAddress, error)
}

// Service is the cart engine. Every mutation runs under the user's lock and in
// one transaction that locks the active order before its lines, and re-reads
// stock from the catalog before writing.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*AddResult, error)
	Increase(ctx context.Context, userID, lineID uuid.UUID, amount int) (*orders.LineDTO, error)
	Decrease(ctx context.Context, userID, lineID uuid.UUID, amount int) (*DecreaseResult, error)
	Remove(ctx context.Context, userID, lineID uuid.UUID) error
	GetActive(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, bool, error)
	AssignDeliveryAddress(ctx context.Context, userID, addressID uuid.UUID) (*orders.OrderDTO, error)
}

// AddResult reports the line after the add and whether it was newly created.
type AddResult struct {
	Line    orders.LineDTO `json:"item"`
	Created bool           `json:"created"`
}

// DecreaseResult holds either the updated line or a removal acknowledgement.
type DecreaseResult struct {
	Line    *orders.LineDTO `json:"item,omitempty"`
	LineID  uuid.UUID       `json:"item_id"`
	Removed bool            `json:"removed"`
}

// Dependencies wires the cart engine. Metrics and Logger are optional.
type Dependencies struct {
	Lines     LineRepository
	Orders    orders.Repository
	Catalog   catalog.Lookup
	Addresses addressFinder
	Tx        txRunner
	Locker    locks.UserLocker
	Metrics   *metrics.CartMetrics
	Logger    *logger.Logger
}

type service struct {
	lines     LineRepository
	orders    orders.Repository
	catalog   catalog.Lookup
	addresses addressFinder
	tx        txRunner
	locker    locks.UserLocker
	metrics   *metrics.CartMetrics
	logg      *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(deps Dependencies) (Service, error) {
	if deps.Lines == nil {
		return nil, fmt.Errorf("line repository required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address finder required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Locker == nil {
		return nil, fmt.Errorf("user locker required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		lines:     deps.Lines,
		orders:    deps.Orders,
		catalog:   deps.Catalog,
		addresses: deps.Addresses,
		tx:        deps.Tx,
		locker:    deps.Locker,
		metrics:   deps.Metrics,
		logg:      logg,
	}, nil
}

// Add merges quantity into the line for the product, creating the active
// order and the line as needed. Nothing is written when the merged quantity
// would exceed stock.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*AddResult, error) {
	if quantity < 1 {
		return nil, pkgerrors.InvalidQuantity("quantity", quantity)
	}

	var result *AddResult
	err := s.mutate(ctx, userID, opAdd, func(tx *gorm.DB) error {
		product, err := s.catalog.Lookup(ctx, tx, productID)
		if err != nil {
			return err
		}
		if quantity > product.Stock {
			return pkgerrors.InsufficientStock(product.Stock, quantity)
		}

		order, err := s.orders.WithTx(tx).GetOrCreateActive(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get or create active cart")
		}

		lines := s.lines.WithTx(tx)
		line, err := lines.FindForUpdate(ctx, order.ID, product.ID, product.ShopID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = &models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				ShopID:    product.ShopID,
				Quantity:  quantity,
			}
			if err := lines.Create(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
			result = &AddResult{Line: lineDTO(line, product), Created: true}
			return nil
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		merged := line.Quantity + quantity
		if merged > product.Stock {
			return pkgerrors.InsufficientStock(product.Stock, merged).WithDetail(detailInCart, line.Quantity)
		}
		if err := lines.UpdateQuantity(ctx, line.ID, merged); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		line.Quantity = merged
		result = &AddResult{Line: lineDTO(line, product), Created: false}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Increase adds amount to a line, bounded by live stock.
func (s *service) Increase(ctx context.Context, userID, lineID uuid.UUID, amount int) (*orders.LineDTO, error) {
	if amount < 1 {
		return nil, pkgerrors.InvalidQuantity("amount", amount)
	}

	var result *orders.LineDTO
	err := s.mutate(ctx, userID, opIncrease, func(tx *gorm.DB) error {
		line, err := s.lockOwnedLine(ctx, tx, userID, lineID)
		if err != nil {
			return err
		}
		product, err := s.catalog.Lookup(ctx, tx, line.ProductID)
		if err != nil {
			return err
		}

		next := line.Quantity + amount
		if next > product.Stock {
			return pkgerrors.InsufficientStock(product.Stock, next).WithDetail(detailInCart, line.Quantity)
		}
		if err := s.lines.WithTx(tx).UpdateQuantity(ctx, line.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		line.Quantity = next
		dto := lineDTO(line, product)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Decrease subtracts amount from a line. A line that would reach zero or less
// is deleted instead.
func (s *service) Decrease(ctx context.Context, userID, lineID uuid.UUID, amount int) (*DecreaseResult, error) {
	if amount < 1 {
		return nil, pkgerrors.InvalidQuantity("amount", amount)
	}

	var result *DecreaseResult
	err := s.mutate(ctx, userID, opDecrease, func(tx *gorm.DB) error {
		line, err := s.lockOwnedLine(ctx, tx, userID, lineID)
		if err != nil {
			return err
		}
		lines := s.lines.WithTx(tx)

		if line.Quantity <= amount {
			if err := lines.Delete(ctx, line.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
			}
			result = &DecreaseResult{LineID: line.ID, Removed: true}
			return nil
		}

		next := line.Quantity - amount
		if err := lines.UpdateQuantity(ctx, line.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		line.Quantity = next
		// pricing the response is best effort; the product may have left the catalog
		product, err := s.catalog.Lookup(ctx, tx, line.ProductID)
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return err
		}
		dto := lineDTO(line, product)
		result = &DecreaseResult{Line: &dto, LineID: line.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Remove deletes a line regardless of its quantity.
func (s *service) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	return s.mutate(ctx, userID, opRemove, func(tx *gorm.DB) error {
		line, err := s.lockOwnedLine(ctx, tx, userID, lineID)
		if err != nil {
			return err
		}
		if err := s.lines.WithTx(tx).Delete(ctx, line.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return nil
	})
}

// GetActive returns the active cart priced at current catalog prices. The bool
// is false when the user has no active cart, which is not an error.
func (s *service) GetActive(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, bool, error) {
	order, err := s.orders.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	dto := orders.ToOrderDTO(*order)
	return &dto, true, nil
}

// AssignDeliveryAddress attaches one of the user's addresses to the active cart.
func (s *service) AssignDeliveryAddress(ctx context.Context, userID, addressID uuid.UUID) (*orders.OrderDTO, error) {
	err := s.mutate(ctx, userID, opAddress, func(tx *gorm.DB) error {
		if _, err := s.addresses.FindOwned(ctx, tx, userID, addressID); err != nil {
			return err
		}
		repo := s.orders.WithTx(tx)
		order, err := repo.LockActive(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.CartNotFound()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
		}
		if err := repo.SetDeliveryAddress(ctx, order.ID, addressID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign delivery address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cart, ok, err := s.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.CartNotFound()
	}
	return cart, nil
}

// lockOwnedLine locks the user's active order, then the line inside it. Lines
// of other users or of past orders are reported as not found.
func (s *service) lockOwnedLine(ctx context.Context, tx *gorm.DB, userID, lineID uuid.UUID) (*models.OrderItem, error) {
	order, err := s.orders.WithTx(tx).LockActive(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.LineNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	line, err := s.lines.WithTx(tx).LockInOrder(ctx, order.ID, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.LineNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return line, nil
}

func (s *service) mutate(ctx context.Context, userID uuid.UUID, op string, fn func(tx *gorm.DB) error) (err error) {
	start := time.Now()
	defer func() {
		code := metrics.ResultOK
		if err != nil {
			code = string(pkgerrors.CodeOf(err))
			if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
				s.logg.Error(s.logg.WithField(ctx, "operation", op), "cart mutation failed", err)
			}
		}
		s.metrics.ObserveOperation(op, code, time.Since(start))
	}()

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.tx.WithTx(ctx, fn)
}

func lineDTO(line *models.OrderItem, product *catalog.Snapshot) orders.LineDTO {
	item := *line
	if product != nil {
		item.Product = &models.Product{ID: product.ID, Name: product.Name, Price: product.Price}
	}
	return orders.ToLineDTO(item)
}
