package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/api/weberr"
	"github.com/irsalhamdi/coaching-portal/core/claims"
	"github.com/irsalhamdi/coaching-portal/core/profile"
	"github.com/irsalhamdi/coaching-portal/core/user"
	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/irsalhamdi/coaching-portal/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// register creates a user together with its basic-tier profile.
func register(ctx context.Context, db *sqlx.DB, u user.User, firstName, lastName string) error {
	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := user.Create(ctx, tx, u); err != nil {
			return err
		}

		p := profile.Profile{
			ID:             u.ID,
			FirstName:      firstName,
			LastName:       lastName,
			MembershipTier: profile.TierBasic,
			CreatedAt:      u.CreatedAt,
			UpdatedAt:      u.UpdatedAt,
		}
		return profile.Create(ctx, tx, p)
	})
}

func HandleSignup(db *sqlx.DB, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in user.UserSignup
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("generating password hash: %w", err)
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Email:        in.Email,
			PasswordHash: hash,
			Role:         claims.RoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := register(ctx, db, u, in.FirstName, in.LastName); err != nil {
			if errors.Is(err, database.ErrDBDuplicatedEntry) {
				return weberr.NewError(err, "email already in use", http.StatusConflict)
			}
			return fmt.Errorf("registering user: %w", err)
		}

		if err := login(ctx, sm, u.ID, u.Role); err != nil {
			return err
		}

		return web.Respond(ctx, w, u, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in user.UserLogin
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(err)
		}

		u, err := user.FetchByEmail(ctx, db, in.Email)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotAuthorized(err)
			}
			return fmt.Errorf("fetching user: %w", err)
		}

		if len(u.PasswordHash) == 0 {
			return weberr.NotAuthorized(errors.New("user has no password, use the oauth login"))
		}

		if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password)); err != nil {
			return weberr.NotAuthorized(err)
		}

		if err := login(ctx, sm, u.ID, u.Role); err != nil {
			return err
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

func HandleLogout(sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := sm.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
