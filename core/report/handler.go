package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/coaching-portal/api/background"
	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/api/weberr"
	"github.com/sirupsen/logrus"
)

const refreshTimeout = time.Minute

func HandleDashboard(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		d, err := svc.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("building dashboard: %w", err)
		}

		return web.Respond(ctx, w, d, http.StatusOK)
	}
}

func HandleLatest(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		d, ok := svc.Latest()
		if !ok {
			return weberr.NotFound(errors.New("no dashboard has been built yet"))
		}

		return web.Respond(ctx, w, d, http.StatusOK)
	}
}

// HandleRefresh rebuilds the dashboard in the background; clients poll
// HandleLatest for the result.
func HandleRefresh(svc *Service, bg *background.Background, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		started := bg.Go("report-refresh", func() {
			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()

			if _, err := svc.Refresh(ctx); err != nil {
				log.WithField("task", "report-refresh").Error(err)
			}
		})

		if !started {
			err := errors.New("server is shutting down")
			return weberr.NewError(err, err.Error(), http.StatusServiceUnavailable)
		}

		resp := struct {
			Status string `json:"status"`
		}{"refreshing"}
		return web.Respond(ctx, w, resp, http.StatusAccepted)
	}
}
