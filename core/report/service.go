package report

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/irsalhamdi/coaching-portal/core/order"
	"github.com/irsalhamdi/coaching-portal/core/profile"
	"github.com/irsalhamdi/coaching-portal/metrics"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const recentOrders = 5

type OrderFetcher interface {
	FetchOrders(ctx context.Context) ([]order.Order, error)
}

type ProfileFetcher interface {
	FetchProfiles(ctx context.Context) ([]profile.Profile, error)
}

// DBSource reads the report inputs straight from the database.
type DBSource struct {
	DB *sqlx.DB
}

func (s DBSource) FetchOrders(ctx context.Context) ([]order.Order, error) {
	return order.Query(ctx, s.DB, order.Filter{Sort: "asc"})
}

func (s DBSource) FetchProfiles(ctx context.Context) ([]profile.Profile, error) {
	return profile.Query(ctx, s.DB, profile.Filter{})
}

type RecentOrder struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Status        order.Status    `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"createdAt"`
	Ago           string          `json:"ago"`
}

type Dashboard struct {
	GeneratedAt     time.Time        `json:"generatedAt"`
	Overview        OverviewStats    `json:"overview"`
	MonthlyRevenue  []MonthRevenue   `json:"monthlyRevenue"`
	RevenueBySource []SourceRevenue  `json:"revenueBySource"`
	TopProducts     []ProductRevenue `json:"topProducts"`
	PaymentMethods  []MethodRevenue  `json:"paymentMethods"`
	RecentOrders    []RecentOrder    `json:"recentOrders"`
}

// Build assembles a dashboard from one snapshot. The overview sees every
// order; the revenue breakdowns only see completed ones.
func Build(orders []order.Order, profiles []profile.Profile, topN int, now time.Time) Dashboard {
	done := order.CompletedOnly(orders)

	return Dashboard{
		GeneratedAt:     now,
		Overview:        BuildOverview(orders, profiles),
		MonthlyRevenue:  MonthlyHistory(done),
		RevenueBySource: RevenueBySource(done),
		TopProducts:     TopProducts(done, topN),
		PaymentMethods:  PaymentMethods(done),
		RecentOrders:    recent(orders, now),
	}
}

func recent(orders []order.Order, now time.Time) []RecentOrder {
	sorted := make([]order.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if len(sorted) > recentOrders {
		sorted = sorted[:recentOrders]
	}

	out := make([]RecentOrder, 0, len(sorted))
	for _, o := range sorted {
		out = append(out, RecentOrder{
			ID:            o.ID,
			UserID:        o.UserID,
			Status:        o.Status,
			PaymentMethod: o.PaymentMethod,
			Total:         o.Total,
			CreatedAt:     o.CreatedAt,
			Ago:           RelativeTime(o.CreatedAt, now),
		})
	}
	return out
}

type Config struct {
	Orders   OrderFetcher
	Profiles ProfileFetcher
	Log      logrus.FieldLogger
	Metrics  *metrics.Registry
	TopN     int
	Now      func() time.Time
}

// Service builds dashboards and keeps the most recent one. Refreshes may
// overlap; each takes a ticket before fetching and a result is only
// published if no later ticket has been published already.
type Service struct {
	orders   OrderFetcher
	profiles ProfileFetcher
	log      logrus.FieldLogger
	reg      *metrics.Registry
	topN     int
	now      func() time.Time

	mu        sync.Mutex
	ticket    uint64
	published uint64
	latest    *Dashboard
}

func NewService(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		orders:   cfg.Orders,
		profiles: cfg.Profiles,
		log:      cfg.Log,
		reg:      cfg.Metrics,
		topN:     cfg.TopN,
		now:      now,
	}
}

// Refresh fetches a fresh snapshot and builds a dashboard from it. When a
// refresh that started later has already published, the newer dashboard is
// returned and this one is dropped.
func (s *Service) Refresh(ctx context.Context) (Dashboard, error) {
	s.mu.Lock()
	s.ticket++
	ticket := s.ticket
	s.mu.Unlock()

	start := time.Now()

	orders, err := s.orders.FetchOrders(ctx)
	if err != nil {
		s.reg.ReportBuildFailures.Inc()
		return Dashboard{}, fmt.Errorf("fetching orders: %w", err)
	}

	profiles, err := s.profiles.FetchProfiles(ctx)
	if err != nil {
		s.reg.ReportBuildFailures.Inc()
		return Dashboard{}, fmt.Errorf("fetching profiles: %w", err)
	}

	d := Build(orders, profiles, s.topN, s.now())

	s.reg.ReportBuilds.Inc()
	s.reg.ReportBuildSeconds.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket < s.published {
		s.reg.ReportSuperseded.Inc()
		s.log.WithFields(logrus.Fields{
			"ticket":    ticket,
			"published": s.published,
		}).Debug("dropping superseded dashboard")
		return *s.latest, nil
	}

	s.published = ticket
	s.latest = &d
	return d, nil
}

// Latest returns the last published dashboard.
func (s *Service) Latest() (Dashboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return Dashboard{}, false
	}
	return *s.latest, true
}
