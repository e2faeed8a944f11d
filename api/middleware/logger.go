package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger logs the start and the outcome of each request and records its
// duration in reg when reg is not nil.
func Logger(log logrus.FieldLogger, reg *metrics.Registry) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			log := log

			if rid := ContextRequestID(ctx); rid != "" {
				log = log.WithField("req_id", rid)
			}

			log = log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"remoteaddr": r.RemoteAddr,
			})

			log.Info("started")
			start := time.Now().UTC()

			lw := mutil.WrapWriter(w)
			err := handler(ctx, lw, r)

			status := lw.Status()
			if status == 0 {
				status = http.StatusOK
			}
			since := time.Since(start)

			if reg != nil {
				reg.RequestDuration.WithLabelValues(r.Method, strconv.Itoa(status)).Observe(since.Seconds())
			}

			log.WithFields(logrus.Fields{
				"statuscode": status,
				"bytes":      lw.BytesWritten(),
				"since":      since.Nanoseconds(),
			}).Info("completed")
			return err
		}
		return h
	}
	return m
}
