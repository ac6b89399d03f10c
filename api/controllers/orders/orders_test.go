package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orders-backend/api/middleware"
	internalorders "github.com/angelmondragon/orders-backend/internal/orders"
	"github.com/angelmondragon/orders-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
)

type stubOrdersService struct {
	confirm   func(ctx context.Context, userID, orderID, contactID uuid.UUID) (*internalorders.ConfirmationDTO, error)
	history   []internalorders.HistoryEntry
	detail    *internalorders.OrderDTO
	detailErr error
}

func (s *stubOrdersService) Confirm(ctx context.Context, userID, orderID, contactID uuid.UUID) (*internalorders.ConfirmationDTO, error) {
	return s.confirm(ctx, userID, orderID, contactID)
}

func (s *stubOrdersService) History(context.Context, uuid.UUID) ([]internalorders.HistoryEntry, error) {
	return s.history, nil
}

func (s *stubOrdersService) Get(context.Context, uuid.UUID, uuid.UUID) (*internalorders.OrderDTO, error) {
	return s.detail, s.detailErr
}

func userRequest(method, target, body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) (string, map[string]any) {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code, payload.Error.Details
}

func TestConfirmSuccess(t *testing.T) {
	userID, orderID, contactID := uuid.New(), uuid.New(), uuid.New()
	var gotUser, gotOrder, gotContact uuid.UUID
	svc := &stubOrdersService{confirm: func(_ context.Context, u, o, c uuid.UUID) (*internalorders.ConfirmationDTO, error) {
		gotUser, gotOrder, gotContact = u, o, c
		return &internalorders.ConfirmationDTO{
			OrderID:     o,
			Status:      enums.OrderStatusConfirmed,
			StatusLabel: "Confirmed",
			ConfirmedAt: time.Now(),
			Total:       decimal.RequireFromString("25.50"),
			Channel:     enums.ChannelEmail,
		}, nil
	}}

	body := `{"order_id":"` + orderID.String() + `","contact_id":"` + contactID.String() + `"}`
	resp := httptest.NewRecorder()
	OrderConfirm(svc, nil).ServeHTTP(resp, userRequest(http.MethodPost, "/api/v1/orders/confirm", body, userID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotUser != userID || gotOrder != orderID || gotContact != contactID {
		t.Fatalf("service called with wrong ids")
	}
	var envelope struct {
		Data struct {
			Status     string `json:"status"`
			Total      string `json:"total"`
			NotifiedVia string `json:"notified_via"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Status != "confirmed" || envelope.Data.Total != "25.5" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
	if envelope.Data.NotifiedVia != string(enums.ChannelEmail) {
		t.Fatalf("unexpected channel %q", envelope.Data.NotifiedVia)
	}
}

func TestConfirmMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   pkgerrors.Code
		reason string
	}{
		{"missing order", pkgerrors.OrderNotFound(), http.StatusNotFound, pkgerrors.CodeNotFound, pkgerrors.ReasonOrderNotFound},
		{"no address", pkgerrors.DeliveryAddressRequired(), http.StatusUnprocessableEntity, pkgerrors.CodePreconditionFailed, pkgerrors.ReasonDeliveryAddressRequired},
		{"foreign contact", pkgerrors.ContactNotFound(), http.StatusNotFound, pkgerrors.CodeNotFound, pkgerrors.ReasonContactNotFound},
		{"notifier down", pkgerrors.NotificationFailed(errors.New("broker down")), http.StatusServiceUnavailable, pkgerrors.CodeDependency, pkgerrors.ReasonNotificationFailed},
		{"busy", pkgerrors.CartBusy(), http.StatusConflict, pkgerrors.CodeBusy, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOrdersService{confirm: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*internalorders.ConfirmationDTO, error) {
				return nil, tc.err
			}}
			body := `{"order_id":"` + uuid.NewString() + `","contact_id":"` + uuid.NewString() + `"}`
			resp := httptest.NewRecorder()
			OrderConfirm(svc, nil).ServeHTTP(resp, userRequest(http.MethodPost, "/api/v1/orders/confirm", body, uuid.New()))

			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
			code, details := errorCode(t, resp)
			if code != string(tc.code) {
				t.Fatalf("expected code %s got %s", tc.code, code)
			}
			if tc.reason != "" && details["reason"] != tc.reason {
				t.Fatalf("expected reason %s got %v", tc.reason, details["reason"])
			}
		})
	}
}

func TestConfirmRequiresIDs(t *testing.T) {
	svc := &stubOrdersService{confirm: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*internalorders.ConfirmationDTO, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	resp := httptest.NewRecorder()
	OrderConfirm(svc, nil).ServeHTTP(resp, userRequest(http.MethodPost, "/api/v1/orders/confirm", `{"order_id":"`+uuid.NewString()+`"}`, uuid.New()))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestHistory(t *testing.T) {
	svc := &stubOrdersService{history: []internalorders.HistoryEntry{
		{ID: uuid.New(), Status: enums.OrderStatusConfirmed, StatusLabel: "Confirmed", Total: decimal.RequireFromString("10")},
	}}
	resp := httptest.NewRecorder()
	OrderHistory(svc, nil).ServeHTTP(resp, userRequest(http.MethodGet, "/api/v1/orders/history", "", uuid.New()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0]["status_label"] != "Confirmed" {
		t.Fatalf("unexpected history %v", envelope.Data)
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{detailErr: pkgerrors.OrderNotFound()}
	orderID := uuid.New()

	req := userRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", uuid.New())
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	resp := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
