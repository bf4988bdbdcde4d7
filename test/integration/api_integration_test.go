package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, h http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func seedCatalogue(t *testing.T, env *TestEnv) {
	t.Helper()

	w := doRequest(t, env.Handler, http.MethodPost, "/api/admin/seed", nil, map[string]string{"X-API-Key": testAdminKey})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Seeded sample products."}`, w.Body.String())
}

func completionEvent(t *testing.T, eventID, cart, total, email string) []byte {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":     eventID,
		"object": "event",
		"type":   "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id":               "cs_test_integration",
				"object":           "checkout.session",
				"customer_details": map[string]any{"email": email},
				"metadata":         map[string]string{"cart": cart, "total_cents": total},
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func postEvent(t *testing.T, env *TestEnv, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, env.Handler, http.MethodPost, "/webhook", payload, map[string]string{"Stripe-Signature": SignEvent(payload)})
}

func listOrders(t *testing.T, env *TestEnv) []model.Order {
	t.Helper()

	w := doRequest(t, env.Handler, http.MethodGet, "/api/admin/orders", nil, map[string]string{"X-API-Key": testAdminKey})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.OrdersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Orders
}

func countOrders(t *testing.T, env *TestEnv) int {
	t.Helper()

	var n int
	require.NoError(t, env.Pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM orders`).Scan(&n))
	return n
}

func TestCheckoutReconciliation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool := NewTestPool(t)

	t.Run("Cart to recorded order", func(t *testing.T) {
		ResetDB(t, pool)
		env := SetupTestEnv(t, pool, Options{AckOnRecordFailure: true})
		seedCatalogue(t, env)

		w := doRequest(t, env.Handler, http.MethodGet, "/api/products", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var products model.ProductsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
		require.Len(t, products.Products, 4)
		assert.Equal(t, int64(1500), products.Products[0].PriceCents)

		body := []byte(`{"cart":[{"id":1,"qty":2,"price_cents":1}],"email":"buyer@example.com"}`)
		w = doRequest(t, env.Handler, http.MethodPost, "/api/create-checkout-session", body, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"cs_test_integration","url":"https://checkout.example.com/pay/cs_test_integration"}`, w.Body.String())

		form := env.Provider.LastForm()
		require.NotNil(t, form)
		assert.Equal(t, "1500", form["line_items[0][price_data][unit_amount]"])
		assert.Equal(t, "2", form["line_items[0][quantity]"])
		assert.Equal(t, "http://shop.test/success", form["success_url"])
		assert.Equal(t, "http://shop.test/cancel", form["cancel_url"])
		assert.Equal(t, "http://shop.test/images/blue-tee.jpg", form["line_items[0][price_data][product_data][images][0]"])
		assert.Equal(t, "3000", form["metadata[total_cents]"])

		payload := completionEvent(t, "evt_flow", form["metadata[cart]"], form["metadata[total_cents]"], "buyer@example.com")
		w = postEvent(t, env, payload)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())

		orders := listOrders(t, env)
		require.Len(t, orders, 1)
		order := orders[0]
		require.NotNil(t, order.Email)
		assert.Equal(t, "buyer@example.com", *order.Email)
		assert.Equal(t, int64(3000), order.TotalCents)
		assert.Equal(t, model.OrderStatusPaid, order.Status)
		require.NotNil(t, order.CheckoutSessionID)
		assert.Equal(t, "cs_test_integration", *order.CheckoutSessionID)
		require.Len(t, order.Items, 1)
		assert.Equal(t, int64(1), order.Items[0].ProductID)
		assert.Equal(t, 2, order.Items[0].Quantity)
		assert.Equal(t, int64(1500), order.Items[0].UnitPriceCents)
	})

	t.Run("Unknown products never reach the provider", func(t *testing.T) {
		ResetDB(t, pool)
		env := SetupTestEnv(t, pool, Options{AckOnRecordFailure: true})
		seedCatalogue(t, env)

		w := doRequest(t, env.Handler, http.MethodPost, "/api/create-checkout-session", []byte(`{"cart":[{"id":999,"qty":1}]}`), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, env.Provider.Calls())
	})

	t.Run("Seed is idempotent", func(t *testing.T) {
		ResetDB(t, pool)
		env := SetupTestEnv(t, pool, Options{AckOnRecordFailure: true})
		seedCatalogue(t, env)

		w := doRequest(t, env.Handler, http.MethodPost, "/api/admin/seed", nil, map[string]string{"X-API-Key": testAdminKey})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Products already exist."}`, w.Body.String())
	})

	t.Run("Tampered body is rejected", func(t *testing.T) {
		ResetDB(t, pool)
		env := SetupTestEnv(t, pool, Options{AckOnRecordFailure: true})
		seedCatalogue(t, env)

		payload := completionEvent(t, "evt_tampered", `[{"id":1,"qty":2}]`, "3000", "buyer@example.com")
		signature := SignEvent(payload)
		tampered := bytes.Replace(payload, []byte(`3000`), []byte(`1`), 1)

		w := doRequest(t, env.Handler, http.MethodPost, "/webhook", tampered, map[string]string{"Stripe-Signature": signature})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, countOrders(t, env))
	})

	t.Run("Unhandled event is acknowledged", func(t *testing.T) {
		ResetDB(t, pool)
		env := SetupTestEnv(t, pool, Options{AckOnRecordFailure: true})

		payload := []byte(`{"id":"evt_other","object":"event","type":"payment_intent.succeeded","data":{"object":{}}}`)
		w := postEvent(t, env, payload)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
		assert.Zero(t, countOrders(t, env))
	})

	t.Run("Malformed metadata is acknowledged", func(t *testing.T) {
		ResetDB(t, pool)
		env := SetupTestEnv(t, pool, Options{AckOnRecordFailure: false})
		seedCatalogue(t, env)

		payload := completionEvent(t, "evt_bad", `not json`, "3000", "buyer@example.com")
		w := postEvent(t, env, payload)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, countOrders(t, env))
	})

	t.Run("Same event twice records two orders", func(t *testing.T) {
		ResetDB(t, pool)
		env := SetupTestEnv(t, pool, Options{AckOnRecordFailure: true})
		seedCatalogue(t, env)

		payload := completionEvent(t, "evt_twice", `[{"id":1,"qty":2}]`, "3000", "buyer@example.com")
		require.Equal(t, http.StatusOK, postEvent(t, env, payload).Code)
		require.Equal(t, http.StatusOK, postEvent(t, env, payload).Code)

		assert.Equal(t, 2, countOrders(t, env))
	})

	t.Run("Deduplication records once", func(t *testing.T) {
		ResetDB(t, pool)
		env := SetupTestEnv(t, pool, Options{AckOnRecordFailure: true, Deduplicate: true})
		seedCatalogue(t, env)

		payload := completionEvent(t, "evt_dedup", `[{"id":1,"qty":2}]`, "3000", "buyer@example.com")
		require.Equal(t, http.StatusOK, postEvent(t, env, payload).Code)
		w := postEvent(t, env, payload)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
		assert.Equal(t, 1, countOrders(t, env))
	})

	t.Run("Admin endpoints require the key", func(t *testing.T) {
		ResetDB(t, pool)
		env := SetupTestEnv(t, pool, Options{AckOnRecordFailure: true})

		w := doRequest(t, env.Handler, http.MethodGet, "/api/admin/orders", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
