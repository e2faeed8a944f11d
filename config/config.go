package config

import (
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/coaching-portal/database"
)

type Config struct {
	conf.Version
	Web    Web
	Cors   Cors
	DB     database.Config
	Auth   Auth
	Oauth  Oauth
	Paypal Paypal
	Stripe Stripe
	Report Report
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type Auth struct {
	SessionLifetime time.Duration `conf:"default:24h"`
	LoginBurst      int           `conf:"default:5"`
	LoginInterval   time.Duration `conf:"default:2s"`
	LimiterExpiry   time.Duration `conf:"default:10m"`
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:10s"`
	LoginRedirectURL string        `conf:"default:/"`
	Google           OauthProvider
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api-m.sandbox.paypal.com"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL     string `conf:"default:http://localhost:3000/checkout/cancel"`
}

type Report struct {
	TopProducts int `conf:"default:5"`
}
