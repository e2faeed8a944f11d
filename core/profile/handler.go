package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/api/weberr"
	"github.com/irsalhamdi/coaching-portal/core/claims"
	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/irsalhamdi/coaching-portal/validate"
	"github.com/jmoiron/sqlx"
)

func HandleShowCurrent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		p, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching current profile: %w", err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleUpdateCurrent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var pu ProfileUp
		if err := web.Decode(w, r, &pu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pu); err != nil {
			return weberr.BadRequest(err)
		}

		p, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching current profile: %w", err)
		}

		if pu.FirstName != nil {
			p.FirstName = *pu.FirstName
		}
		if pu.LastName != nil {
			p.LastName = *pu.LastName
		}
		p.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, p); err != nil {
			return fmt.Errorf("updating current profile: %w", err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := Filter{
			Tier:   web.Query(r, "tier"),
			Search: web.Query(r, "q"),
		}

		if f.Tier != "" && !Tier(f.Tier).Known() {
			return weberr.BadRequest(fmt.Errorf("unknown tier %q", f.Tier))
		}

		ps, err := Query(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing profiles: %w", err)
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}

func HandleUpdateMembership(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var mu MembershipUp
		if err := web.Decode(w, r, &mu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(mu); err != nil {
			return weberr.BadRequest(err)
		}

		if err := UpdateMembership(ctx, db, id, mu, time.Now().UTC()); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, weberr.WithField("profile_id", id))
			}
			return fmt.Errorf("updating membership: %w", err)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			return fmt.Errorf("fetching updated profile: %w", err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}
