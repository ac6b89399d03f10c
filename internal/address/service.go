package address

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddressDTO is the client-facing delivery address.
type AddressDTO struct {
	ID        uuid.UUID `json:"id"`
	City      string    `json:"city"`
	Street    string    `json:"street"`
	Building  string    `json:"building"`
	Block     *string   `json:"block,omitempty"`
	Structure *string   `json:"structure,omitempty"`
	Apartment *int      `json:"apartment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AddressInput is used for create and update. Update replaces every field.
type AddressInput struct {
	City      string
	Street    string
	Building  string
	Block     *string
	Structure *string
	Apartment *int
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// FindOwned is used when attaching an address to the cart. tx may be nil.
	FindOwned(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*models.DeliveryAddress, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	addr, err := s.FindOwned(ctx, nil, userID, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*addr)
	return &dto, nil
}

func (s *service) FindOwned(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*models.DeliveryAddress, error) {
	addr, err := s.repo.WithTx(tx).FindOwned(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.AddressNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return addr, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	addr := &models.DeliveryAddress{UserID: userID}
	apply(addr, input)
	if err := s.repo.Create(ctx, addr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	dto := toDTO(*addr)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*AddressDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	addr, err := s.FindOwned(ctx, nil, userID, id)
	if err != nil {
		return nil, err
	}
	apply(addr, input)
	if err := s.repo.Update(ctx, addr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	dto := toDTO(*addr)
	return &dto, nil
}

// Delete detaches the address from the active cart before removing it.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DetachFromActiveCart(ctx, userID, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach address")
		}
		deleted, err := repo.DeleteOwned(ctx, userID, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
		}
		if !deleted {
			return pkgerrors.AddressNotFound()
		}
		return nil
	})
}

func validateInput(input AddressInput) error {
	required := map[string]string{"city": input.City, "street": input.Street, "building": input.Building}
	for _, field := range []string{"city", "street", "building"} {
		if strings.TrimSpace(required[field]) == "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", field).
				WithDetail(pkgerrors.DetailField, field)
		}
	}
	if input.Apartment != nil && *input.Apartment < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "apartment must be positive").
			WithDetail(pkgerrors.DetailField, "apartment")
	}
	return nil
}

func apply(addr *models.DeliveryAddress, input AddressInput) {
	addr.City = strings.TrimSpace(input.City)
	addr.Street = strings.TrimSpace(input.Street)
	addr.Building = strings.TrimSpace(input.Building)
	addr.Block = trimmedOrNil(input.Block)
	addr.Structure = trimmedOrNil(input.Structure)
	addr.Apartment = input.Apartment
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func toDTO(a models.DeliveryAddress) AddressDTO {
	return AddressDTO{
		ID:        a.ID,
		City:      a.City,
		Street:    a.Street,
		Building:  a.Building,
		Block:     a.Block,
		Structure: a.Structure,
		Apartment: a.Apartment,
		CreatedAt: a.CreatedAt,
	}
}
