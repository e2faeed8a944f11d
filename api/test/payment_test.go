package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	mock "github.com/stripe/stripe-mock/param"
)

var providerSeq atomic.Int64

// expectation is the priced cart a mocked provider should receive next.
type expectation struct {
	mu     sync.Mutex
	prices []decimal.Decimal
	status string
}

func (e *expectation) expect(prices ...decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prices = prices
}

func (e *expectation) check(n int, tot decimal.Decimal) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n != len(e.prices) {
		return false
	}

	exp := decimal.Zero
	for _, p := range e.prices {
		exp = exp.Add(p)
	}
	return exp.Equal(tot)
}

type mockPaypal struct {
	expectation
}

// captureStatus sets the status returned by the next captures.
func (m *mockPaypal) captureStatus(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := map[string]any{
			"access_token": "token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		web.Respond(context.Background(), w, tok, 200)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 || pu.Units[0].Amount == nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		tot, err := decimal.NewFromString(pu.Units[0].Amount.Value)
		if err != nil || !m.check(len(pu.Units[0].Items), tot) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		ord := paypal.Order{ID: fmt.Sprintf("paypal-%d", providerSeq.Add(1)), Status: "CREATED"}
		web.Respond(context.Background(), w, ord, 200)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		status := m.status
		m.mu.Unlock()
		if status == "" {
			status = "COMPLETED"
		}

		ord := paypal.CaptureOrderResponse{ID: mux.Vars(r)["id"], Status: status}
		web.Respond(context.Background(), w, ord, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

type mockStripe struct {
	expectation
}

// list returns the entries of a form-encoded array, which the param parser
// may hand back either as a slice or as a map keyed by index.
func list(v any) []any {
	switch vv := v.(type) {
	case []any:
		return vv
	case map[string]any:
		out := make([]any, 0, len(vv))
		for _, e := range vv {
			out = append(out, e)
		}
		return out
	}
	return nil
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		n := 0
		cents := int64(0)
		for _, li := range list(params["line_items"]) {
			it, ok := li.(map[string]any)
			if !ok || it["quantity"] != "1" {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			pd, _ := it["price_data"].(map[string]any)
			s, _ := pd["unit_amount"].(string)
			amount, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			cents += amount
			n++
		}

		if !m.check(n, decimal.New(cents, -2)) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		id := fmt.Sprintf("cs_test_%d", providerSeq.Add(1))
		sess := map[string]any{
			"id":     id,
			"object": "checkout.session",
			"mode":   "payment",
			"url":    "https://checkout.stripe.test/" + id,
		}
		web.Respond(context.Background(), w, sess, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}
