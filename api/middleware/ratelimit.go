package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/irsalhamdi/coaching-portal/api/web"
	"github.com/irsalhamdi/coaching-portal/api/weberr"
	"github.com/irsalhamdi/coaching-portal/rate"
)

// RateLimit refuses requests from a remote host once its bucket is empty.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Check(host) {
				return weberr.TooManyRequests(errors.New("too many requests from " + host))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
