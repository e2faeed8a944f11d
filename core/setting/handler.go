package setting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/api/weberr"
	"github.com/irsalhamdi/coaching-portal/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func HandleList(db *sqlx.DB, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ss, err := QueryAll(ctx, db, log)
		if err != nil {
			return fmt.Errorf("listing settings: %w", err)
		}

		return web.Respond(ctx, w, ss, http.StatusOK)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		k, err := Lookup(web.Param(r, "key"))
		if err != nil {
			if errors.Is(err, ErrUnknownKey) {
				return weberr.NotFound(err)
			}
			return err
		}

		var su SettingUp
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(su); err != nil {
			return weberr.BadRequest(err)
		}

		v, err := k.FromJSON(su.Value)
		if err != nil {
			return weberr.BadRequest(err)
		}

		now := time.Now().UTC()
		if err := Upsert(ctx, db, k.Name, v, now); err != nil {
			return fmt.Errorf("storing setting: %w", err)
		}

		return web.Respond(ctx, w, Setting{Key: k.Name, Value: v, UpdatedAt: &now}, http.StatusOK)
	}
}
