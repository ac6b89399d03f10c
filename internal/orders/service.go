package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/internal/contacts"
	"github.com/angelmondragon/orders-backend/internal/locks"
	"github.com/angelmondragon/orders-backend/internal/notifications"
	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/metrics"
	"github.com/angelmondragon/orders-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type contactFinder interface {
	FindOwned(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*models.Contact, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the created -> confirmed transition and order reads.
type Service interface {
	Confirm(ctx context.Context, userID, orderID, contactID uuid.UUID) (*ConfirmationDTO, error)
	History(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

// Dependencies wires the confirmation engine. Metrics and Logger are optional.
type Dependencies struct {
	Repo        Repository
	Tx          txRunner
	Locker      locks.UserLocker
	Contacts    contactFinder
	Notifier    notifications.Notifier
	Outbox      outboxEmitter
	SenderEmail string
	Metrics     *metrics.CartMetrics
	Logger      *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	locker   locks.UserLocker
	contacts contactFinder
	notifier notifications.Notifier
	outbox   outboxEmitter
	sender   string
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(deps Dependencies) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Locker == nil {
		return nil, fmt.Errorf("user locker required")
	}
	if deps.Contacts == nil {
		return nil, fmt.Errorf("contact finder required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     deps.Repo,
		tx:       deps.Tx,
		locker:   deps.Locker,
		contacts: deps.Contacts,
		notifier: deps.Notifier,
		outbox:   deps.Outbox,
		sender:   deps.SenderEmail,
		metrics:  deps.Metrics,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Confirm checks, in order: the order is the caller's and still created, it has
// a delivery address, the contact is the caller's. The notifier must accept
// the message before the status changes; any failure leaves the order created.
func (s *service) Confirm(ctx context.Context, userID, orderID, contactID uuid.UUID) (result *ConfirmationDTO, err error) {
	defer func() {
		code := metrics.ResultOK
		if err != nil {
			code = string(pkgerrors.CodeOf(err))
		}
		s.metrics.ObserveConfirmation(code)
	}()

	ctx = s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), orderID.String())

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.LockOwnedCreated(ctx, userID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.OrderNotFound()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.DeliveryAddressID == nil {
			return pkgerrors.DeliveryAddressRequired()
		}
		contact, err := s.contacts.FindOwned(ctx, tx, userID, contactID)
		if err != nil {
			return err
		}
		dest, err := contacts.DestinationOf(*contact)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve contact channel")
		}

		items, err := repo.ListItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}
		total := Total(items)

		msg := notifications.OrderConfirmed(order.ID, dest.Channel(), dest.Value(), s.sender, total)
		if err := s.notifier.Notify(ctx, msg); err != nil {
			return pkgerrors.NotificationFailed(err)
		}

		confirmedAt := s.now().UTC()
		ok, err := repo.MarkConfirmed(ctx, order.ID, confirmedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if !ok {
			return pkgerrors.OrderNotFound()
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			OccurredAt:    confirmedAt,
			Data: outbox.OrderConfirmedEvent{
				OrderID:           order.ID,
				UserID:            userID,
				ContactID:         contact.ID,
				DeliveryAddressID: *order.DeliveryAddressID,
				Total:             total,
				ItemCount:         len(items),
				ConfirmedAt:       confirmedAt,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order confirmed")
		}

		result = &ConfirmationDTO{
			OrderID:     order.ID,
			Status:      enums.OrderStatusConfirmed,
			StatusLabel: enums.OrderStatusConfirmed.Label(),
			ConfirmedAt: confirmedAt,
			Total:       total,
			Channel:     dest.Channel(),
		}
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			s.logg.Error(ctx, "order confirmation failed", err)
		}
		return nil, err
	}

	s.logg.Info(ctx, "order confirmed")
	return result, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := s.repo.ListHistory(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	out := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, toHistoryEntry(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOwned(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetail(pkgerrors.DetailReason, pkgerrors.ReasonOrderNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := ToOrderDTO(*order)
	return &dto, nil
}
