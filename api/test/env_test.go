package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/coaching-portal/api"
	"github.com/irsalhamdi/coaching-portal/api/background"
	"github.com/irsalhamdi/coaching-portal/config"
	"github.com/irsalhamdi/coaching-portal/core/claims"
	"github.com/irsalhamdi/coaching-portal/core/profile"
	"github.com/irsalhamdi/coaching-portal/core/report"
	"github.com/irsalhamdi/coaching-portal/core/user"
	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/irsalhamdi/coaching-portal/metrics"
	"github.com/irsalhamdi/coaching-portal/rate"
	"github.com/irsalhamdi/coaching-portal/validate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"golang.org/x/crypto/bcrypt"
)

type TestEnv struct {
	*httptest.Server
	DB            *sqlx.DB
	AdminEmail    string
	AdminPass     string
	UserEmail     string
	UserPass      string
	UserID        string
	WebhookSecret string
	Paypal        *mockPaypal
	Stripe        *mockStripe
}

// NewTestEnv starts a throwaway postgres container, migrates it and serves the
// whole API against it with mocked payment providers. The test is skipped
// when docker is not reachable.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=" + name,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres: %w", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("purging postgres container: %v", err)
		}
	})
	_ = resource.Expire(300)

	dbCfg := database.Config{
		User:         "postgres",
		Password:     "postgres",
		Host:         resource.GetHostPort("5432/tcp"),
		Name:         name,
		MaxIdleConns: 2,
		MaxOpenConns: 10,
		DisableTLS:   true,
	}

	var db *sqlx.DB
	pool.MaxWait = time.Minute
	err = pool.Retry(func() error {
		db, err = database.Open(dbCfg)
		if err != nil {
			return err
		}
		return db.Ping()
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating: %w", err)
	}

	env := TestEnv{
		DB:            db,
		AdminEmail:    "admin@example.com",
		AdminPass:     "admin-password",
		UserEmail:     "user@example.com",
		UserPass:      "user-password",
		WebhookSecret: "whsec_test",
		Paypal:        &mockPaypal{},
		Stripe:        &mockStripe{},
	}

	ctx := context.Background()
	if _, err := seedUser(ctx, db, account{Email: env.AdminEmail, Pass: env.AdminPass, Role: claims.RoleAdmin, Tier: profile.TierBasic}); err != nil {
		return nil, err
	}
	if env.UserID, err = seedUser(ctx, db, account{Email: env.UserEmail, Pass: env.UserPass, Role: claims.RoleUser, Tier: profile.TierBasic}); err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	ppSrv := httptest.NewServer(env.Paypal.handle())
	t.Cleanup(ppSrv.Close)

	pp, err := paypal.NewClient("client", "secret", ppSrv.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}
	if _, err := pp.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("paypal token: %w", err)
	}

	stSrv := httptest.NewServer(env.Stripe.handle())
	t.Cleanup(stSrv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(stSrv.URL),
	})
	strp := &stripecl.API{}
	strp.Init("sk_test", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	sm := scs.New()
	sm.Lifetime = time.Hour

	bg := background.New(log)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = bg.Shutdown(ctx)
	})

	reg := metrics.NewRegistry()
	src := report.DBSource{DB: db}

	mux := api.APIMux(api.APIConfig{
		Log:        log,
		DB:         db,
		Session:    sm,
		Background: bg,
		Paypal:     pp,
		Stripe:     strp,
		StripeCfg: config.Stripe{
			WebhookSecret: env.WebhookSecret,
			SuccessURL:    "http://localhost/success",
			CancelURL:     "http://localhost/cancel",
		},
		LoginRedirectURL: "/",
		LoginLimiter:     rate.NewLimiter(1000, time.Minute, rate.Every(time.Millisecond)),
		Metrics:          reg,
		Report: report.NewService(report.Config{
			Orders:   src,
			Profiles: src,
			Log:      log,
			Metrics:  reg,
		}),
	})

	env.Server = httptest.NewServer(mux)
	t.Cleanup(env.Server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	env.Server.Client().Jar = jar

	return &env, nil
}

// account describes a seeded user. Zero names default to "Test <role>" and a
// zero tier stores no tier at all.
type account struct {
	Email     string
	Pass      string
	Role      string
	FirstName string
	LastName  string
	Tier      profile.Tier
}

func seedUser(ctx context.Context, db *sqlx.DB, a account) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Pass), bcrypt.MinCost)
	if err != nil {
		return "", err
	}

	if a.FirstName == "" {
		a.FirstName, a.LastName = "Test", a.Role
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           validate.GenerateID(),
		Email:        a.Email,
		PasswordHash: hash,
		Role:         a.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := user.Create(ctx, tx, u); err != nil {
			return err
		}
		return profile.Create(ctx, tx, profile.Profile{
			ID:             u.ID,
			FirstName:      a.FirstName,
			LastName:       a.LastName,
			MembershipTier: a.Tier,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	})
	if err != nil {
		return "", fmt.Errorf("seeding %s: %w", a.Email, err)
	}
	return u.ID, nil
}

func (env *TestEnv) seed(t *testing.T, a account) string {
	t.Helper()

	if a.Pass == "" {
		a.Pass = "member-password"
	}
	if a.Role == "" {
		a.Role = claims.RoleUser
	}

	id, err := seedUser(context.Background(), env.DB, a)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func Login(srv *httptest.Server, email, pass string) error {
	body := user.UserLogin{Email: email, Password: pass}

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	w, err := srv.Client().Post(srv.URL+"/auth/login", "application/json", bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s: status code %s", email, w.Status)
	}
	return nil
}

func Logout(srv *httptest.Server) error {
	w, err := srv.Client().Post(srv.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: status code %s", w.Status)
	}
	return nil
}

// do sends body as JSON, checks the status code and decodes the response
// into out when out is not nil.
func (env *TestEnv) do(t *testing.T, method, path string, body any, want int, out any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewBuffer(b)
	}

	r, err := http.NewRequest(method, env.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Content-Type", "application/json")

	w, err := env.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != want {
		msg, _ := io.ReadAll(w.Body)
		t.Fatalf("%s %s: expected status %d, got %s: %s", method, path, want, w.Status, msg)
	}

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
}

func (env *TestEnv) asAdmin(t *testing.T) func() {
	t.Helper()
	if err := Login(env.Server, env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}
	return func() { Logout(env.Server) }
}

func (env *TestEnv) asUser(t *testing.T) func() {
	t.Helper()
	if err := Login(env.Server, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	return func() { Logout(env.Server) }
}
