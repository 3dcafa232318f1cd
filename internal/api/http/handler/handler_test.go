package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/staylink_backend/internal/service/partner"
	"github.com/Alijeyrad/staylink_backend/internal/service/settlement"
	"github.com/Alijeyrad/staylink_backend/internal/store"
	pasetotoken "github.com/Alijeyrad/staylink_backend/pkg/paseto"
	"github.com/Alijeyrad/staylink_backend/pkg/stripepay"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeSettlement struct {
	checkoutRes *settlement.CheckoutResult
	err         error
	gotReq      settlement.BookingRequest
	gotGuest    uuid.UUID
	events      []*stripepay.Event
}

func (f *fakeSettlement) Checkout(_ context.Context, guestID uuid.UUID, req settlement.BookingRequest) (*settlement.CheckoutResult, error) {
	f.gotGuest, f.gotReq = guestID, req
	return f.checkoutRes, f.err
}

func (f *fakeSettlement) GetPlan(_ context.Context, _ uuid.UUID, key string) (*settlement.PlanDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &settlement.PlanDetails{Plan: &store.Plan{IdempotencyKey: key}}, nil
}

func (f *fakeSettlement) HandleGatewayEvent(_ context.Context, evt *stripepay.Event) error {
	f.events = append(f.events, evt)
	return f.err
}

func (f *fakeSettlement) PayoutsDue(context.Context, uuid.UUID) ([]store.Obligation, error) {
	return nil, nil
}

type fakeParser struct{ err error }

func (p fakeParser) ParseWebhook(payload []byte, sig string) (*stripepay.Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &stripepay.Event{Type: stripepay.EventCheckoutCompleted, SessionID: string(payload)}, nil
}

type fakePartner struct {
	partner.Service
	linkCreated bool
	err         error
}

func (f *fakePartner) Link(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return f.linkCreated, f.err
}

func (f *fakePartner) Unlink(context.Context, uuid.UUID, uuid.UUID) error { return f.err }

func (f *fakePartner) SetPlatformFee(context.Context, decimal.Decimal) error { return f.err }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func withClaims(uid uuid.UUID) fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Locals(pasetotoken.CtxKeyClaims, &pasetotoken.Claims{
			Type: pasetotoken.TokenTypeAccess, UserID: uid, Role: pasetotoken.RoleMember,
		})
		return c.Next()
	}
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func checkoutJSON(vendor uuid.UUID) string {
	return fmt.Sprintf(`{"experience_name":"Harbour walk","vendor_id":%q,"date":"2026-08-14","time":"19:00","guests":2,"total_price":"100.00","currency":"USD"}`, vendor)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCheckout_Status(t *testing.T) {
	guest, vendor := uuid.New(), uuid.New()
	plan := &store.Plan{ID: uuid.New(), TotalAmount: 10000}

	tests := []struct {
		name string
		res  *settlement.CheckoutResult
		err  error
		want int
	}{
		{"new plan", &settlement.CheckoutResult{Plan: plan, PlanCreated: true, URL: "https://pay"}, nil, http.StatusCreated},
		{"reused plan", &settlement.CheckoutResult{Plan: plan, URL: "https://pay"}, nil, http.StatusOK},
		{"validation", nil, &settlement.ValidationError{Field: "guests", Reason: "must be greater than zero"}, http.StatusBadRequest},
		{"unknown vendor", nil, settlement.ErrUnknownVendor, http.StatusNotFound},
		{"lookup failure", nil, fmt.Errorf("%w: boom", settlement.ErrLookupFailed), http.StatusServiceUnavailable},
		{"session failure", nil, fmt.Errorf("%w: timeout", settlement.ErrSessionCreation), http.StatusBadGateway},
		{"in progress", nil, settlement.ErrCheckoutInProgress, http.StatusConflict},
		{"unexpected", nil, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSettlement{checkoutRes: tt.res, err: tt.err}
			h := NewSettlementHandler(svc)
			app := fiber.New()
			app.Post("/checkout", withClaims(guest), h.Checkout)

			status, body := do(t, app, http.MethodPost, "/checkout", checkoutJSON(vendor))
			if status != tt.want {
				t.Fatalf("status = %d, want %d (%v)", status, tt.want, body)
			}
			if tt.err == nil {
				if svc.gotGuest != guest || svc.gotReq.VendorID != vendor {
					t.Errorf("service got guest=%v vendor=%v", svc.gotGuest, svc.gotReq.VendorID)
				}
				if !svc.gotReq.TotalPrice.Equal(decimal.NewFromInt(100)) {
					t.Errorf("total = %s", svc.gotReq.TotalPrice)
				}
				if _, ok := body["data"]; !ok {
					t.Errorf("missing data envelope: %v", body)
				}
			} else if _, ok := body["error"]; !ok {
				t.Errorf("missing error envelope: %v", body)
			}
		})
	}
}

func TestCheckout_BadInput(t *testing.T) {
	h := NewSettlementHandler(&fakeSettlement{})

	app := fiber.New()
	app.Post("/checkout", withClaims(uuid.New()), h.Checkout)
	app.Post("/anon", h.Checkout)

	if status, _ := do(t, app, http.MethodPost, "/checkout", `{"vendor_id":"nope"}`); status != http.StatusBadRequest {
		t.Errorf("bad vendor id: status = %d", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/checkout", `{`); status != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", status)
	}
	body := fmt.Sprintf(`{"vendor_id":%q,"host_id":"not-a-uuid"}`, uuid.New())
	if status, _ := do(t, app, http.MethodPost, "/checkout", body); status != http.StatusBadRequest {
		t.Errorf("bad host id: status = %d", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/anon", checkoutJSON(uuid.New())); status != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d", status)
	}
}

func TestGetSettlement(t *testing.T) {
	app := fiber.New()
	app.Get("/settlements/:key", withClaims(uuid.New()), NewSettlementHandler(&fakeSettlement{}).Get)

	missing := fiber.New()
	missing.Get("/settlements/:key", withClaims(uuid.New()),
		NewSettlementHandler(&fakeSettlement{err: settlement.ErrPlanNotFound}).Get)

	if status, _ := do(t, app, http.MethodGet, "/settlements/v1_abc", ""); status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if status, _ := do(t, missing, http.MethodGet, "/settlements/v1_abc", ""); status != http.StatusNotFound {
		t.Errorf("status = %d", status)
	}
}

func TestStripeWebhook(t *testing.T) {
	tests := []struct {
		name   string
		parser fakeParser
		svcErr error
		want   int
	}{
		{"accepted", fakeParser{}, nil, http.StatusOK},
		{"bad signature", fakeParser{err: stripepay.ErrInvalidSignature}, nil, http.StatusBadRequest},
		{"not configured", fakeParser{err: stripepay.ErrNotConfigured}, nil, http.StatusServiceUnavailable},
		{"store down", fakeParser{}, fmt.Errorf("%w: db", settlement.ErrLookupFailed), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSettlement{err: tt.svcErr}
			app := fiber.New()
			app.Post("/webhooks/stripe", NewWebhookHandler(tt.parser, svc).Stripe)

			status, _ := do(t, app, http.MethodPost, "/webhooks/stripe", "cs_1")
			if status != tt.want {
				t.Fatalf("status = %d, want %d", status, tt.want)
			}
			if tt.parser.err == nil && (len(svc.events) != 1 || svc.events[0].SessionID != "cs_1") {
				t.Errorf("event not forwarded: %+v", svc.events)
			}
		})
	}
}

func TestPartnerLink(t *testing.T) {
	vendor := uuid.New()
	tests := []struct {
		name string
		svc  *fakePartner
		path string
		want int
	}{
		{"new link", &fakePartner{linkCreated: true}, "/hosts/me/vendors/" + vendor.String(), http.StatusCreated},
		{"existing link", &fakePartner{}, "/hosts/me/vendors/" + vendor.String(), http.StatusOK},
		{"unknown vendor", &fakePartner{err: partner.ErrVendorNotFound}, "/hosts/me/vendors/" + vendor.String(), http.StatusNotFound},
		{"bad vendor id", &fakePartner{}, "/hosts/me/vendors/xyz", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/hosts/me/vendors/:vendorID", withClaims(uuid.New()), NewPartnerHandler(tt.svc).Link)
			if status, _ := do(t, app, http.MethodPost, tt.path, ""); status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}
}

func TestSetPlatformFee(t *testing.T) {
	app := fiber.New()
	app.Put("/fee", NewPartnerHandler(&fakePartner{}).SetPlatformFee)

	bad := fiber.New()
	bad.Put("/fee", NewPartnerHandler(&fakePartner{err: partner.ErrInvalidPercent}).SetPlatformFee)

	if status, _ := do(t, app, http.MethodPut, "/fee", `{"platform_fee_percent":"4.5"}`); status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if status, _ := do(t, app, http.MethodPut, "/fee", `{}`); status != http.StatusBadRequest {
		t.Errorf("missing field: status = %d", status)
	}
	if status, _ := do(t, bad, http.MethodPut, "/fee", `{"platform_fee_percent":150}`); status != http.StatusBadRequest {
		t.Errorf("out of range: status = %d", status)
	}
}
