// Package auth logs users in and out and guards routes by role. Identity is
// either a bcrypt-checked password or an external OIDC provider; the
// outcome is kept in a server-side scs session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/api/weberr"
	"github.com/irsalhamdi/coaching-portal/core/claims"
)

const (
	userIDKey   = "userID"
	roleKey     = "role"
	oauthState  = "oauthState"
	oauthTarget = "oauthProvider"
)

// LoadAndSave wraps the whole router so every handler sees the session.
func LoadAndSave(sm *scs.SessionManager, next http.Handler) http.Handler {
	return sm.LoadAndSave(next)
}

func Authenticate(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := sm.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("no user bound to the session"))
			}

			ctx = claims.Set(ctx, claims.Claims{
				UserID: userID,
				Role:   sm.GetString(ctx, roleKey),
			})

			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

// Admin authenticates the caller and requires the ADMIN role.
func Admin(sm *scs.SessionManager) web.Middleware {
	authen := Authenticate(sm)
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.Forbidden(errors.New("admin role required"))
			}
			return handler(ctx, w, r)
		}
		return authen(h)
	}
	return m
}

func login(ctx context.Context, sm *scs.SessionManager, userID, role string) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	sm.Put(ctx, userIDKey, userID)
	sm.Put(ctx, roleKey, role)
	return nil
}
