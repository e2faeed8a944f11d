package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/api/weberr"
	"github.com/irsalhamdi/coaching-portal/config"
	"github.com/irsalhamdi/coaching-portal/core/claims"
	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/irsalhamdi/coaching-portal/metrics"
	"github.com/irsalhamdi/coaching-portal/validate"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

var hundred = decimal.NewFromInt(100)

// decodeCheckout reads and prices the caller's checkout request.
func decodeCheckout(ctx context.Context, db *sqlx.DB, w http.ResponseWriter, r *http.Request) ([]Line, error) {
	var req Checkout
	if err := web.Decode(w, r, &req); err != nil {
		return nil, weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
	}

	if err := validate.Check(req); err != nil {
		return nil, weberr.BadRequest(err)
	}

	lines, err := checkout(ctx, db, req)
	switch {
	case errors.Is(err, ErrEmptyCheckout):
		return nil, weberr.Unprocessable(err)
	case errors.Is(err, database.ErrDBNotFound):
		return nil, weberr.NotFound(err)
	case err != nil:
		return nil, fmt.Errorf("pricing checkout items: %w", err)
	}
	return lines, nil
}

func HandlePaypalCheckout(db *sqlx.DB, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		lines, err := decodeCheckout(ctx, db, w, r)
		if err != nil {
			return err
		}

		items := make([]paypal.Item, 0, len(lines))
		for _, l := range lines {
			items = append(items, paypal.Item{
				Quantity:    "1",
				Name:        l.Name,
				Description: l.Description,

				UnitAmount: &paypal.Money{
					Currency: "USD",
					Value:    l.Price.StringFixed(2),
				},
			})
		}

		tot := total(lines).StringFixed(2)
		units := []paypal.PurchaseUnitRequest{{
			Items: items,

			Amount: &paypal.PurchaseUnitAmount{
				Currency: "USD",
				Value:    tot,

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
					Currency: "USD",
					Value:    tot,
				}},
			},
		}}

		ord, err := pp.CreateOrder(ctx, "CAPTURE", units, nil, &paypal.ApplicationContext{})
		if err != nil {
			return fmt.Errorf("creating paypal order: %w", err)
		}

		if _, err := prepare(ctx, db, clm.UserID, MethodPaypal, ord.ID, lines); err != nil {
			return fmt.Errorf("creating the order on the database: %w", err)
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandlePaypalCapture(db *sqlx.DB, pp *paypal.Client, reg *metrics.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		ord, err := FetchByProviderID(ctx, db, providerID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, weberr.WithField("provider_id", providerID))
			}
			return fmt.Errorf("fetching order: %w", err)
		}

		if !claims.IsUser(ctx, ord.UserID) {
			return weberr.Forbidden(errors.New("order belongs to another user"), weberr.WithField("order_id", ord.ID))
		}

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
		}

		if resp.Status != "COMPLETED" {
			reg.OrdersFailed.WithLabelValues(MethodPaypal).Inc()
			if err := fail(ctx, db, providerID); err != nil {
				return fmt.Errorf("marking order as failed: %w", err)
			}
			err := fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
			return weberr.NewError(err, "payment was not completed", http.StatusPaymentRequired)
		}

		if _, err := fulfill(ctx, db, providerID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}
		reg.OrdersFulfilled.WithLabelValues(MethodPaypal).Inc()

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleStripeCheckout(db *sqlx.DB, strp *stripecl.API, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		lines, err := decodeCheckout(ctx, db, w, r)
		if err != nil {
			return err
		}

		li := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
		for _, l := range lines {
			li = append(li, &stripe.CheckoutSessionLineItemParams{
				Quantity: stripe.Int64(1),

				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String("usd"),
					TaxBehavior: stripe.String("inclusive"),
					UnitAmount:  stripe.Int64(l.Price.Mul(hundred).Round(0).IntPart()),

					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(l.Name),
						Description: stripe.String(l.Description),
					},
				},
			})
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL: stripe.String(cfg.SuccessURL),
			CancelURL:  stripe.String(cfg.CancelURL),
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems:  li,
		}
		params.Context = ctx

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return fmt.Errorf("creating stripe session: %w", err)
		}

		if _, err := prepare(ctx, db, clm.UserID, MethodStripe, s.ID, lines); err != nil {
			return fmt.Errorf("creating the order on the database: %w", err)
		}

		return web.Respond(ctx, w, s.URL, http.StatusOK)
	}
}

func HandleStripeCapture(db *sqlx.DB, cfg config.Stripe, reg *metrics.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" && event.Type != "checkout.session.expired" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if event.Type == "checkout.session.expired" {
			if err := fail(ctx, db, session.ID); err != nil {
				return fmt.Errorf("marking expired session as failed: %w", err)
			}
			reg.OrdersFailed.WithLabelValues(MethodStripe).Inc()
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if _, err := fulfill(ctx, db, session.ID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}
		reg.OrdersFulfilled.WithLabelValues(MethodStripe).Inc()

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleListMine(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		ords, err := Query(ctx, db, Filter{UserID: clm.UserID, Sort: "desc"})
		if err != nil {
			return fmt.Errorf("listing orders of user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, ords, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := Filter{
			Status: web.Query(r, "status"),
			Search: web.Query(r, "q"),
			Sort:   web.Query(r, "sort"),
		}

		if f.Status != "" && !Status(f.Status).Valid() {
			return weberr.BadRequest(fmt.Errorf("unknown status %q", f.Status))
		}
		if f.Sort != "" && f.Sort != "asc" && f.Sort != "desc" {
			return weberr.BadRequest(fmt.Errorf("sort must be asc or desc, got %q", f.Sort))
		}

		ords, err := Query(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}

		return web.Respond(ctx, w, ords, http.StatusOK)
	}
}

func HandleUpdateStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var su AdminStatusUp
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(su); err != nil {
			return weberr.BadRequest(err)
		}

		up := StatusUp{ID: id, Status: su.Status, UpdatedAt: time.Now().UTC()}
		if err := UpdateStatus(ctx, db, up); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, weberr.WithField("order_id", id))
			}
			return fmt.Errorf("updating order status: %w", err)
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			return fmt.Errorf("fetching updated order: %w", err)
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}
