package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
)

type addBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"6f1c1c1e-2c1a-4f43-9a57-3f5ad0c2a6a1","quantity":2}`))
	var body addBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, 2, body.Quantity)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"x","quantity":1,"price":"0.01"}`))
	var body addBody
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"not-a-uuid"}`))
	var body addBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	details := pkgerrors.As(err).Details()
	assert.Equal(t, "must be a valid UUID", details["product_id"])
	assert.Equal(t, "is required", details["quantity"])
}

func TestDecodeJSONBodyEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	var body addBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestDecodeOptionalJSONBody(t *testing.T) {
	var body struct {
		Amount *int `json:"amount"`
	}
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(``))
	require.NoError(t, DecodeOptionalJSONBody(req, &body))
	assert.Nil(t, body.Amount)

	req = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"amount":`))
	assert.True(t, pkgerrors.IsCode(DecodeOptionalJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestParseQueryDecimal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?price_from=10.5&bad=x&neg=-1", nil)

	value, err := ParseQueryDecimal(req, "price_from")
	require.NoError(t, err)
	assert.Equal(t, "10.5", value.String())

	missing, err := ParseQueryDecimal(req, "price_to")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ParseQueryDecimal(req, "bad")
	assert.Error(t, err)
	_, err = ParseQueryDecimal(req, "neg")
	assert.Error(t, err)
}

func TestParseUUIDParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("itemId", "nope")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	_, err := ParseUUIDParam(req, "itemId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "héll", SanitizeString("  héllo ", 4))
	assert.Equal(t, "hello", SanitizeString("hello", 0))
}
