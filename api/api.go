package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/coaching-portal/api/background"
	"github.com/irsalhamdi/coaching-portal/api/middleware"
	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/config"
	"github.com/irsalhamdi/coaching-portal/core/auth"
	"github.com/irsalhamdi/coaching-portal/core/course"
	"github.com/irsalhamdi/coaching-portal/core/order"
	"github.com/irsalhamdi/coaching-portal/core/product"
	"github.com/irsalhamdi/coaching-portal/core/profile"
	"github.com/irsalhamdi/coaching-portal/core/report"
	"github.com/irsalhamdi/coaching-portal/core/setting"
	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/irsalhamdi/coaching-portal/metrics"
	"github.com/irsalhamdi/coaching-portal/rate"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Background       *background.Background
	Paypal           *paypal.Client
	Stripe           *stripecl.API
	StripeCfg        config.Stripe
	Providers        map[string]auth.Provider
	LoginRedirectURL string
	LoginLimiter     *rate.Limiter
	Metrics          *metrics.Registry
	Report           *report.Service
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log, cfg.Metrics))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)

	a.Router.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	a.Handle(http.MethodGet, "/readiness", handleReadiness(cfg.DB))

	var loginMW []web.Middleware
	if cfg.LoginLimiter != nil {
		loginMW = append(loginMW, middleware.RateLimit(cfg.LoginLimiter))
	}

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session), loginMW...)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session), loginMW...)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/profiles/current", profile.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodPut, "/profiles/current", profile.HandleUpdateCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/admin/profiles", profile.HandleList(cfg.DB), admin)
	a.Handle(http.MethodPut, "/admin/profiles/{id}/membership", profile.HandleUpdateMembership(cfg.DB), admin)

	a.Handle(http.MethodGet, "/courses/owned", course.HandleListOwned(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/courses", course.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/courses/{id}", course.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB, true))
	a.Handle(http.MethodGet, "/admin/products", product.HandleList(cfg.DB, false), admin)
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB), admin)
	a.Handle(http.MethodDelete, "/products/{id}", product.HandleDelete(cfg.DB), admin)

	a.Handle(http.MethodGet, "/orders", order.HandleListMine(cfg.DB), authen)
	if cfg.Paypal != nil {
		a.Handle(http.MethodPost, "/orders/paypal", order.HandlePaypalCheckout(cfg.DB, cfg.Paypal), authen)
		a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.DB, cfg.Paypal, cfg.Metrics), authen)
	}
	a.Handle(http.MethodPost, "/orders/stripe", order.HandleStripeCheckout(cfg.DB, cfg.Stripe, cfg.StripeCfg), authen)
	a.Handle(http.MethodPost, "/orders/stripe/capture", order.HandleStripeCapture(cfg.DB, cfg.StripeCfg, cfg.Metrics))
	a.Handle(http.MethodGet, "/admin/orders", order.HandleList(cfg.DB), admin)
	a.Handle(http.MethodPut, "/admin/orders/{id}/status", order.HandleUpdateStatus(cfg.DB), admin)

	a.Handle(http.MethodGet, "/settings", setting.HandleList(cfg.DB, cfg.Log))
	a.Handle(http.MethodPut, "/admin/settings/{key}", setting.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/admin/reports/dashboard", report.HandleDashboard(cfg.Report), admin)
	a.Handle(http.MethodPost, "/admin/reports/refresh", report.HandleRefresh(cfg.Report, cfg.Background, cfg.Log), admin)
	a.Handle(http.MethodGet, "/admin/reports/latest", report.HandleLatest(cfg.Report), admin)

	return auth.LoadAndSave(cfg.Session, a.Router)
}

func handleReadiness(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		status := struct {
			Status string `json:"status"`
		}{"ok"}

		code := http.StatusOK
		if err := database.StatusCheck(ctx, db); err != nil {
			status.Status = "db not ready"
			code = http.StatusServiceUnavailable
		}

		return web.Respond(ctx, w, status, code)
	}
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
