package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodePreconditionFailed, status: http.StatusUnprocessableEntity, publicMsg: "precondition failed", detailsOK: true},
		{code: CodeBusy, status: http.StatusConflict, publicMsg: "resource busy, retry shortly", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if got := wrapped.Error(); got != "CONFLICT: ctx: boom" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestInsufficientStockCarriesAvailable(t *testing.T) {
	err := fmt.Errorf("add: %w", InsufficientStock(5, 6))

	typed := As(err)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	if typed.Code() != CodeInsufficientStock {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if typed.Details()[DetailAvailable] != 5 {
		t.Fatalf("expected available=5, got %v", typed.Details()[DetailAvailable])
	}
	if Reason(err) != ReasonInsufficientStock {
		t.Fatalf("unexpected reason %q", Reason(err))
	}
}

func TestDomainReasonsShareCodes(t *testing.T) {
	cases := map[string]struct {
		err    error
		code   Code
		reason string
	}{
		"order":    {OrderNotFound(), CodeNotFound, ReasonOrderNotFound},
		"contact":  {ContactNotFound(), CodeNotFound, ReasonContactNotFound},
		"product":  {ProductNotFound(uuid.New()), CodeNotFound, ReasonProductNotFound},
		"address":  {DeliveryAddressRequired(), CodePreconditionFailed, ReasonDeliveryAddressRequired},
		"quantity": {InvalidQuantity("amount", 0), CodeValidation, ReasonInvalidQuantity},
		"notify":   {NotificationFailed(stdErrors.New("timeout")), CodeDependency, ReasonNotificationFailed},
	}

	for name, tc := range cases {
		if !IsCode(tc.err, tc.code) {
			t.Fatalf("%s: expected code %s got %s", name, tc.code, CodeOf(tc.err))
		}
		if Reason(tc.err) != tc.reason {
			t.Fatalf("%s: expected reason %s got %s", name, tc.reason, Reason(tc.err))
		}
	}
}

func TestAsAndCodeOfUntyped(t *testing.T) {
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
	if (*Error)(nil).Details() != nil {
		t.Fatalf("nil error should have no details")
	}
}

func TestDiagnoseCarriesPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_active_cart", TableName: "orders"}
	err := Wrap(CodeConflict, fmt.Errorf("insert cart: %w", pgErr), "cart already open")

	d := Diagnose(err)
	if d.Code != CodeConflict {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected three links in chain, got %v", d.Chain)
	}
	if d.PG == nil || d.PG.Constraint != "idx_orders_active_cart" {
		t.Fatalf("missing pg detail: %+v", d.PG)
	}
	fields := d.Fields()
	if fields["pg_code"] != "23505" || fields["pg_table"] != "orders" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestDiagnosePlainError(t *testing.T) {
	d := Diagnose(InsufficientStock(1, 3))
	if d.PG != nil {
		t.Fatalf("unexpected pg detail")
	}
	if d.Fields()["reason"] != ReasonInsufficientStock {
		t.Fatalf("reason missing from fields: %v", d.Fields())
	}
	if Diagnose(nil).Message != "" {
		t.Fatalf("nil error should diagnose empty")
	}
}
