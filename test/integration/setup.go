package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database/dbtest"
	"storefront/internal/handler"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	testSigningSecret = "whsec_integration"
	testAdminKey      = "test-api-key"
)

// Options toggles the fulfilment behaviours under test.
type Options struct {
	AckOnRecordFailure bool
	Deduplicate        bool
}

// TestEnv is a fully wired storefront backed by a PostgreSQL container and a fake provider.
type TestEnv struct {
	Handler  http.Handler
	Pool     *pgxpool.Pool
	Provider *FakeProvider
}

// FakeProvider records checkout session requests the way the hosted provider would receive them.
type FakeProvider struct {
	Server *httptest.Server

	mu    sync.Mutex
	forms []map[string]string
}

// LastForm returns the most recent session creation request.
func (p *FakeProvider) LastForm() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.forms) == 0 {
		return nil
	}
	return p.forms[len(p.forms)-1]
}

// Calls returns the number of session creation requests received.
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.forms)
}

func newFakeProvider(t *testing.T) *FakeProvider {
	t.Helper()

	p := &FakeProvider{}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		p.mu.Lock()
		p.forms = append(p.forms, form)
		p.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cs_test_integration",
			"object": "checkout.session",
			"url":    "https://checkout.example.com/pay/cs_test_integration",
		})
	}))
	t.Cleanup(p.Server.Close)

	return p
}

// SetupTestEnv wires repositories, services and the router the same way the serve command does.
func SetupTestEnv(t *testing.T, pool *pgxpool.Pool, opts Options) *TestEnv {
	t.Helper()

	logger := zerolog.Nop()
	provider := newFakeProvider(t)

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	gateway := payment.NewGateway(config.StripeConfig{
		SecretKey:       "sk_test_integration",
		APIURL:          provider.Server.URL,
		Timeout:         5 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: time.Second,
	}, logger)
	verifier := payment.NewVerifier(config.WebhookConfig{
		SigningSecret: testSigningSecret,
		Tolerance:     5 * time.Minute,
	}, logger)

	productService := service.NewProductService(productRepo, catalog.NewFileLoader(logger), "", logger)
	checkoutService := service.NewCheckoutService(pricing.NewEngine(productRepo, logger), gateway, logger)
	orderService := service.NewOrderService(orderRepo, service.OrderOptions{
		Timeout:     5 * time.Second,
		Deduplicate: opts.Deduplicate,
	}, logger)
	fulfillmentService := service.NewFulfillmentService(verifier, orderService, opts.AckOnRecordFailure, logger)

	mux := router.New(router.Handlers{
		Product:  handler.NewProductHandler(productService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, "http://shop.test", logger),
		Webhook:  handler.NewWebhookHandler(fulfillmentService, logger),
		Admin:    handler.NewAdminHandler(productService, orderService, logger),
	}, config.CORSConfig{AllowedOrigins: []string{"http://shop.test"}}, testAdminKey, logger)

	return &TestEnv{Handler: mux, Pool: pool, Provider: provider}
}

// NewTestPool starts PostgreSQL with the schema applied.
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	return dbtest.NewPool(t)
}

// ResetDB empties every table.
func ResetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	dbtest.Truncate(t, pool)
}

// SignEvent returns the provider signature header for payload.
func SignEvent(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSigningSecret,
		Timestamp: time.Now(),
	}).Header
}
