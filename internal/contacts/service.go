package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/db"
	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
)

const uniqueContactIndex = "idx_contacts_user_value"

// ContactDTO is the client-facing contact payload.
type ContactDTO struct {
	ID        uuid.UUID         `json:"id"`
	Type      enums.ContactType `json:"type"`
	Value     string            `json:"value"`
	CreatedAt time.Time         `json:"created_at"`
}

// ContactInput is used for create and update.
type ContactInput struct {
	Type  string
	Value string
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ContactDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*ContactDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input ContactInput) (*ContactDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input ContactInput) (*ContactDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// FindOwned is the confirmation lookup. tx may be nil.
	FindOwned(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*models.Contact, error)
}

type service struct {
	repo     *Repository
	validate *validator.Validate
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contact repository required")
	}
	return &service{repo: repo, validate: validator.New()}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ContactDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contacts")
	}
	out := make([]ContactDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*ContactDTO, error) {
	contact, err := s.FindOwned(ctx, nil, userID, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*contact)
	return &dto, nil
}

func (s *service) FindOwned(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*models.Contact, error) {
	contact, err := s.repo.WithTx(tx).FindOwned(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ContactNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
	}
	return contact, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input ContactInput) (*ContactDTO, error) {
	typ, value, err := s.normalize(input)
	if err != nil {
		return nil, err
	}
	contact := &models.Contact{UserID: userID, Type: typ, Value: value}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, mapWriteError(err)
	}
	dto := toDTO(*contact)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input ContactInput) (*ContactDTO, error) {
	typ, value, err := s.normalize(input)
	if err != nil {
		return nil, err
	}
	contact, err := s.FindOwned(ctx, nil, userID, id)
	if err != nil {
		return nil, err
	}
	contact.Type = typ
	contact.Value = value
	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, mapWriteError(err)
	}
	dto := toDTO(*contact)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.repo.DeleteOwned(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete contact")
	}
	if !deleted {
		return pkgerrors.ContactNotFound()
	}
	return nil
}

// normalize validates the variant payload: an email address or an E.164 phone number.
func (s *service) normalize(input ContactInput) (enums.ContactType, string, error) {
	typ, err := enums.ParseContactType(input.Type)
	if err != nil {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "type must be email or phone").
			WithDetail(pkgerrors.DetailField, "type")
	}

	value := strings.TrimSpace(input.Value)
	tag := "required,email"
	if typ == enums.ContactTypeEmail {
		value = strings.ToLower(value)
	} else {
		value = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(value)
		tag = "required,e164"
	}
	if err := s.validate.Var(value, tag); err != nil {
		return "", "", pkgerrors.Newf(pkgerrors.CodeValidation, "value is not a valid %s", typ).
			WithDetail(pkgerrors.DetailField, "value")
	}
	return typ, value, nil
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, uniqueContactIndex) {
		return pkgerrors.New(pkgerrors.CodeConflict, "contact already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save contact")
}

func toDTO(c models.Contact) ContactDTO {
	return ContactDTO{ID: c.ID, Type: c.Type, Value: c.Value, CreatedAt: c.CreatedAt}
}
