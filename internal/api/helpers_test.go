package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"velorent/internal/auth"
	"velorent/internal/config"
	"velorent/internal/database"
	"velorent/internal/document"
	"velorent/internal/events"
	"velorent/internal/models"
	"velorent/internal/payment"
	"velorent/internal/repository"
	"velorent/internal/service"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var (
	adminUser  = models.Principal{UserID: 1, Role: models.RoleAdmin, Name: "Admin", Email: "admin@velorent.test"}
	vendorUser = models.Principal{UserID: 9, Role: models.RoleVendor, Name: "Shop", Email: "shop@velorent.test"}
	renterUser = models.Principal{UserID: 7, Role: models.RoleUser, Name: "Ann", Email: "ann@velorent.test"}
	otherUser  = models.Principal{UserID: 8, Role: models.RoleUser, Name: "Bob", Email: "bob@velorent.test"}
)

type fakeGateway struct {
	mu       sync.Mutex
	charges  int
	declined bool
	event    *payment.Event
}

func (g *fakeGateway) CreateCharge(_ context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges++
	if g.declined {
		return nil, fmt.Errorf("%w: insufficient_fund", payment.ErrDeclined)
	}
	return &payment.Charge{
		ID:       fmt.Sprintf("chrg_test_%d", g.charges),
		Status:   payment.StatusSuccessful,
		Amount:   req.Amount,
		Currency: req.Currency,
		Metadata: req.Metadata,
	}, nil
}

func (g *fakeGateway) RetrieveCharge(_ context.Context, id string) (*payment.Charge, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) RetrieveEvent(_ context.Context, id string) (*payment.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.event == nil {
		return &payment.Event{ID: id, Key: "customer.create"}, nil
	}
	return g.event, nil
}

func (g *fakeGateway) decline() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.declined = true
}

func (g *fakeGateway) setEvent(ev *payment.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.event = ev
}

func (g *fakeGateway) chargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.charges
}

type testEnv struct {
	srv      *HTTPServer
	ts       *httptest.Server
	db       *database.DB
	gateway  *fakeGateway
	verifier *auth.Verifier
	bus      *events.EventBus
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App:        config.AppConfig{Name: "velorent", Environment: "test"},
		HTTP:       config.HTTPConfig{AllowedOrigins: []string{"http://localhost:3000"}, MaxBodyBytes: 1 << 16},
		Auth:       config.AuthConfig{JWTSecret: testSecret, HeaderAPIKey: "x-api-key", APIKeys: []config.APIClientKey{{Key: "hook-key", Name: "omise", Permissions: []string{permissionWebhook}}, {Key: "ro-key", Name: "reader", Permissions: []string{"read:bookings"}}}},
		Payment:    config.PaymentConfig{Currency: "usd"},
		Agreements: config.AgreementsConfig{Dir: filepath.Join(t.TempDir(), "agreements"), BaseURL: "/agreements"},
	}
}

func newTestEnv(t *testing.T, mutate ...func(cfg *config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	for _, m := range mutate {
		m(cfg)
	}

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := events.NewEventBus()
	gw := &fakeGateway{}
	verifier := auth.NewVerifier(testSecret, "")

	bookings := service.NewBookingService(db, bus, nil, service.BookingRules{MaxDays: 90, MaxAdvanceDays: 365}, nil)
	payments := service.NewPaymentService(db, gw, repository.NewMemoryAttemptRepository(time.Hour), bus, nil,
		service.PaymentConfig{Currency: "usd", AttemptLimit: 100, AttemptWindow: time.Minute}, nil)
	agreements := service.NewAgreementService(db, document.NewAgreementRenderer("Velorent"), cfg.Agreements.Dir, cfg.Agreements.BaseURL, nil)
	bus.Subscribe(events.EventBookingCompleted, agreements.HandleBookingCompleted)

	srv := NewHTTPServer(cfg, Deps{
		Products:   service.NewProductService(db, nil),
		Bookings:   bookings,
		Payments:   payments,
		Agreements: agreements,
		Feedback:   service.NewFeedbackService(db, bus, nil),
		Reports:    service.NewReportService(db),
		Store:      db,
		Verifier:   verifier,
	}, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, db: db, gateway: gw, verifier: verifier, bus: bus}
}

func (e *testEnv) token(t *testing.T, p models.Principal) string {
	t.Helper()
	tok, err := e.verifier.Mint(p, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request as p; a zero principal sends no token.
func (e *testEnv) do(t *testing.T, p models.Principal, method, path string, body any, headers ...string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.UserID != 0 {
		req.Header.Set("Authorization", "Bearer "+e.token(t, p))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[map[string]string](t, resp)["error"]
}

// createProduct adds a product as the vendor; the brand is the first word of name.
func (e *testEnv) createProduct(t *testing.T, name string, weekly, stock int64) *models.Product {
	t.Helper()
	resp := e.do(t, vendorUser, http.MethodPost, "/api/products", map[string]any{
		"name":         name,
		"brand":        strings.Fields(name)[0],
		"weeklyPrice":  weekly,
		"category":     "bike",
		"countInStock": stock,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[models.Product](t, resp)
	return &p
}

// dates returns a start/end pair offset from today in YYYY-MM-DD.
func dates(fromToday, length int) (string, string) {
	start := models.TruncateDay(time.Now().UTC()).AddDate(0, 0, fromToday)
	return start.Format(models.DateLayout), start.AddDate(0, 0, length).Format(models.DateLayout)
}
