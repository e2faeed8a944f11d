package test

import (
	"net/http"
	"testing"
	"time"

	"github.com/irsalhamdi/coaching-portal/core/order"
	"github.com/irsalhamdi/coaching-portal/core/profile"
	"github.com/irsalhamdi/coaching-portal/core/report"
	"github.com/shopspring/decimal"
)

func TestReport(t *testing.T) {
	env, err := NewTestEnv(t, "report_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ot := &orderTest{env}

	env.do(t, http.MethodGet, "/admin/reports/dashboard", nil, http.StatusUnauthorized, nil)
	func() {
		defer env.asUser(t)()
		env.do(t, http.MethodGet, "/admin/reports/dashboard", nil, http.StatusForbidden, nil)
	}()

	func() {
		defer env.asAdmin(t)()
		env.do(t, http.MethodGet, "/admin/reports/latest", nil, http.StatusNotFound, nil)
	}()

	c := ot.createCourseOK(t, "Nutrition 101", "100")
	ot.Paypal.expect(c.Price)
	ot.testPaypal(t, order.Checkout{CourseIDs: []string{c.ID}})

	premium := profile.TierPremium.MonthlyPrice()
	ot.Stripe.expect(premium)
	ot.testStripeCheckout(t, order.Checkout{Tier: string(profile.TierPremium)})

	defer env.asAdmin(t)()

	var d report.Dashboard
	env.do(t, http.MethodGet, "/admin/reports/dashboard", nil, http.StatusOK, &d)

	ov := d.Overview
	if ov.TotalOrders != 2 {
		t.Fatalf("expected 2 orders, got %d", ov.TotalOrders)
	}
	if !ov.TotalRevenue.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected revenue 100 from the completed order, got %s", ov.TotalRevenue)
	}
	if !ov.AverageOrderValue.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected average order value 50, got %s", ov.AverageOrderValue)
	}
	if got := ov.MembershipCounts[profile.TierBasic]; got.Count != 2 || got.Percentage != "100.0" {
		t.Fatalf("expected two basic members, got %+v", got)
	}

	if len(d.RevenueBySource) != 3 || d.RevenueBySource[0].Source != report.SourceCourses || d.RevenueBySource[0].Percentage != "100.0" {
		t.Fatalf("unexpected revenue by source: %+v", d.RevenueBySource)
	}
	if len(d.TopProducts) != 1 || d.TopProducts[0].Name != "Nutrition 101" {
		t.Fatalf("unexpected top products: %+v", d.TopProducts)
	}
	if len(d.PaymentMethods) != 1 || d.PaymentMethods[0].Method != order.MethodPaypal || d.PaymentMethods[0].Percentage != 100 {
		t.Fatalf("unexpected payment methods: %+v", d.PaymentMethods)
	}
	if len(d.RecentOrders) != 2 || d.RecentOrders[0].Status != order.Pending {
		t.Fatalf("expected the pending stripe order first, got %+v", d.RecentOrders)
	}

	var latest report.Dashboard
	env.do(t, http.MethodGet, "/admin/reports/latest", nil, http.StatusOK, &latest)
	if !latest.GeneratedAt.Equal(d.GeneratedAt) {
		t.Fatalf("expected the published dashboard, got one generated at %s", latest.GeneratedAt)
	}

	env.do(t, http.MethodPost, "/admin/reports/refresh", nil, http.StatusAccepted, nil)

	deadline := time.Now().Add(5 * time.Second)
	for {
		env.do(t, http.MethodGet, "/admin/reports/latest", nil, http.StatusOK, &latest)
		if latest.GeneratedAt.After(d.GeneratedAt) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("background refresh never published")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
