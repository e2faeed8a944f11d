package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/api/weberr"
	"github.com/irsalhamdi/coaching-portal/core/claims"
	"github.com/irsalhamdi/coaching-portal/core/user"
	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/irsalhamdi/coaching-portal/random"
	"github.com/irsalhamdi/coaching-portal/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"
)

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	Config   oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

// MakeProviders runs OIDC discovery for every configured provider. Providers
// without a client id are skipped.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))
	for _, c := range cfgs {
		if c.Client == "" {
			continue
		}

		p, err := oidc.NewProvider(ctx, c.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider %s: %w", c.Name, err)
		}

		provs[c.Name] = Provider{
			Config: oauth2.Config{
				ClientID:     c.Client,
				ClientSecret: c.Secret,
				Endpoint:     p.Endpoint(),
				RedirectURL:  c.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			Verifier: p.Verifier(&oidc.Config{ClientID: c.Client}),
		}
	}
	return provs, nil
}

func HandleOauthLogin(sm *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		prov, ok := provs[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("provider %q not configured", name))
		}

		state, err := random.State()
		if err != nil {
			return fmt.Errorf("generating oauth state: %w", err)
		}
		sm.Put(ctx, oauthState, state)
		sm.Put(ctx, oauthTarget, name)

		http.Redirect(w, r, prov.Config.AuthCodeURL(state), http.StatusFound)
		return nil
	}
}

type idClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func HandleOauthCallback(db *sqlx.DB, sm *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		prov, ok := provs[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("provider %q not configured", name))
		}

		state := sm.PopString(ctx, oauthState)
		target := sm.PopString(ctx, oauthTarget)
		if state == "" || target != name || r.URL.Query().Get("state") != state {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		tok, err := prov.Config.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("exchanging code: %w", err))
		}

		raw, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.NotAuthorized(errors.New("token response has no id_token"))
		}

		idt, err := prov.Verifier.Verify(ctx, raw)
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("verifying id token: %w", err))
		}

		var cl idClaims
		if err := idt.Claims(&cl); err != nil {
			return fmt.Errorf("decoding id token claims: %w", err)
		}
		if cl.Email == "" || !cl.EmailVerified {
			return weberr.NotAuthorized(errors.New("provider did not return a verified email"))
		}

		u, err := user.FetchByEmail(ctx, db, cl.Email)
		switch {
		case errors.Is(err, database.ErrDBNotFound):
			now := time.Now().UTC()
			u = user.User{
				ID:        validate.GenerateID(),
				Email:     cl.Email,
				Role:      claims.RoleUser,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := register(ctx, db, u, cl.GivenName, cl.FamilyName); err != nil {
				return fmt.Errorf("registering oauth user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("fetching oauth user: %w", err)
		}

		if err := login(ctx, sm, u.ID, u.Role); err != nil {
			return err
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
		return nil
	}
}
