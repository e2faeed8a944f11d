package report

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/coaching-portal/core/order"
	"github.com/irsalhamdi/coaching-portal/core/profile"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(name, itemType, price string) order.Item {
	return order.Item{Name: name, ItemType: itemType, Price: dec(price)}
}

func completed(total string, at time.Time, items ...order.Item) order.Order {
	return order.Order{
		Status:        order.Completed,
		PaymentMethod: order.MethodStripe,
		Total:         dec(total),
		CreatedAt:     at,
		Items:         items,
	}
}

func member(tier profile.Tier, status string) profile.Profile {
	return profile.Profile{MembershipTier: tier, SubscriptionStatus: status}
}

var march = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestSingleCourseOrder(t *testing.T) {
	orders := []order.Order{
		completed("100", march, item("Course A", "course", "100")),
	}
	profiles := []profile.Profile{member(profile.TierPremium, profile.SubscriptionActive)}

	ov := BuildOverview(orders, profiles)
	assert.True(t, ov.TotalRevenue.Equal(dec("100")), "total revenue %s", ov.TotalRevenue)
	assert.True(t, ov.MonthlyRecurringRevenue.Equal(dec("29")), "mrr %s", ov.MonthlyRecurringRevenue)
	assert.Equal(t, TierCount{Count: 1, Percentage: "100.0"}, ov.MembershipCounts[profile.TierPremium])
	assert.Equal(t, TierCount{Count: 0, Percentage: "0.0"}, ov.MembershipCounts[profile.TierBasic])

	want := []SourceRevenue{
		{Source: SourceCourses, Amount: dec("100"), Percentage: "100.0"},
		{Source: SourceSubscriptions, Amount: decimal.Zero, Percentage: "0.0"},
		{Source: SourceProducts, Amount: decimal.Zero, Percentage: "0.0"},
	}
	if diff := cmp.Diff(want, RevenueBySource(orders), decimalEqual); diff != "" {
		t.Fatalf("unexpected sources (-want +got):\n%s", diff)
	}
}

func TestEmptyInput(t *testing.T) {
	ov := BuildOverview(nil, nil)
	assert.True(t, ov.TotalRevenue.IsZero())
	assert.True(t, ov.AverageOrderValue.IsZero())
	assert.True(t, ov.MonthlyRecurringRevenue.IsZero())
	assert.Equal(t, 0, ov.TotalOrders)
	assert.Len(t, ov.MembershipCounts, len(profile.Tiers))
	for _, tier := range profile.Tiers {
		assert.Equal(t, "0.0", ov.MembershipCounts[tier].Percentage)
	}

	assert.Empty(t, MonthlyHistory(nil))
	assert.Empty(t, TopProducts(nil, 3))
	assert.Empty(t, PaymentMethods(nil))

	sources := RevenueBySource(nil)
	require.Len(t, sources, 3)
	for _, s := range sources {
		assert.Equal(t, "0.0", s.Percentage)
	}
}

func TestOverviewCountsOnlyCompletedRevenue(t *testing.T) {
	orders := []order.Order{
		completed("100", march),
		completed("50", march),
		{Status: order.Pending, Total: dec("999"), CreatedAt: march},
	}

	ov := BuildOverview(orders, nil)
	assert.True(t, ov.TotalRevenue.Equal(dec("150")))
	assert.Equal(t, 3, ov.TotalOrders)
	// 150 / 3 orders
	assert.True(t, ov.AverageOrderValue.Equal(dec("50")), "aov %s", ov.AverageOrderValue)
}

func TestAverageOrderValueIsExactQuotient(t *testing.T) {
	orders := []order.Order{completed("50", march), completed("50", march), completed("0", march)}

	ov := BuildOverview(orders, nil)
	want := dec("100").Div(dec("3"))
	assert.True(t, ov.AverageOrderValue.Equal(want), "aov %s, want %s", ov.AverageOrderValue, want)
	assert.True(t, ov.AverageOrderValue.Equal(ov.TotalRevenue.Div(decimal.NewFromInt(int64(ov.TotalOrders)))))
	assert.Equal(t, "33.33", ov.AverageOrderValue.StringFixed(2))
}

func TestMembershipDistribution(t *testing.T) {
	profiles := []profile.Profile{
		member("", ""),
		member(profile.TierBasic, profile.SubscriptionActive),
		member(profile.TierPremium, "canceled"),
		member(profile.TierUltimate, profile.SubscriptionActive),
		member("gold", profile.SubscriptionActive),
	}

	ov := BuildOverview(nil, profiles)
	assert.Equal(t, 5, ov.TotalProfiles)
	assert.Equal(t, 1, ov.UnclassifiedProfiles)
	assert.Equal(t, TierCount{Count: 2, Percentage: "40.0"}, ov.MembershipCounts[profile.TierBasic])
	assert.Equal(t, TierCount{Count: 1, Percentage: "20.0"}, ov.MembershipCounts[profile.TierPremium])
	assert.Equal(t, TierCount{Count: 1, Percentage: "20.0"}, ov.MembershipCounts[profile.TierUltimate])

	sum := ov.UnclassifiedProfiles
	for _, c := range ov.MembershipCounts {
		sum += c.Count
	}
	assert.Equal(t, ov.TotalProfiles, sum)

	// basic 0 + ultimate 99; the canceled premium does not recur.
	assert.True(t, ov.MonthlyRecurringRevenue.Equal(dec("99")), "mrr %s", ov.MonthlyRecurringRevenue)
}

func TestMonthlyHistoryMergesSameMonth(t *testing.T) {
	orders := []order.Order{
		completed("50", march, item("Course A", "course", "50")),
		completed("75", march.Add(48*time.Hour), item("Workbook", "product", "75")),
	}

	want := []MonthRevenue{{
		Month:         "Mar",
		Revenue:       dec("125"),
		Courses:       dec("50"),
		Subscriptions: decimal.Zero,
		Products:      dec("75"),
	}}
	if diff := cmp.Diff(want, MonthlyHistory(orders), decimalEqual); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestMonthlyHistoryIgnoresYear(t *testing.T) {
	jan23 := time.Date(2023, time.January, 5, 0, 0, 0, 0, time.UTC)
	jan24 := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	orders := []order.Order{
		completed("10", jan23),
		completed("20", march),
		completed("30", jan24),
	}

	got := MonthlyHistory(orders)
	require.Len(t, got, 2)
	assert.Equal(t, "Jan", got[0].Month)
	assert.True(t, got[0].Revenue.Equal(dec("40")))
	assert.Equal(t, "Mar", got[1].Month)
}

func TestMonthlyHistoryUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	at := time.Date(2024, time.April, 1, 1, 0, 0, 0, loc)

	got := MonthlyHistory([]order.Order{completed("10", at)})
	require.Len(t, got, 1)
	assert.Equal(t, "Mar", got[0].Month)
}

func TestClassify(t *testing.T) {
	tests := map[string]Source{
		"course":              SourceCourses,
		"video course":        SourceCourses,
		"subscription":        SourceSubscriptions,
		"annual subscription": SourceSubscriptions,
		"product":             SourceProducts,
		"":                    SourceProducts,
		"Course":              SourceProducts,
	}

	for in, want := range tests {
		assert.Equal(t, want, Classify(in), "classify %q", in)
	}
}

func TestRevenueBySourcePercentages(t *testing.T) {
	orders := []order.Order{
		completed("100", march,
			item("Course A", "course", "30"),
			item("Premium Membership", "subscription", "30"),
			item("Workbook", "product", "40"),
		),
	}

	got := RevenueBySource(orders)
	require.Len(t, got, 3)
	assert.Equal(t, "30.0", got[0].Percentage)
	assert.Equal(t, "30.0", got[1].Percentage)
	assert.Equal(t, "40.0", got[2].Percentage)
}

func TestTopProducts(t *testing.T) {
	orders := []order.Order{
		completed("0", march,
			item("A", "product", "10"),
			item("B", "course", "30"),
			item("C", "product", "10"),
		),
		completed("0", march,
			item("A", "product", "10"),
			item("D", "product", "5"),
		),
	}

	want := []ProductRevenue{
		{Name: "B", Revenue: dec("30"), SalesCount: 1},
		{Name: "A", Revenue: dec("20"), SalesCount: 2},
		{Name: "C", Revenue: dec("10"), SalesCount: 1},
	}
	if diff := cmp.Diff(want, TopProducts(orders, 3), decimalEqual); diff != "" {
		t.Fatalf("unexpected ranking (-want +got):\n%s", diff)
	}

	assert.Len(t, TopProducts(orders, 0), 4)
}

func TestTopProductsTiesKeepFirstSeen(t *testing.T) {
	orders := []order.Order{
		completed("0", march, item("Z", "product", "10"), item("A", "product", "10"), item("M", "product", "10")),
	}

	var names []string
	for _, p := range TopProducts(orders, 5) {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Z", "A", "M"}, names)
}

func TestPaymentMethods(t *testing.T) {
	orders := []order.Order{
		{PaymentMethod: "stripe", Total: dec("1")},
		{PaymentMethod: "paypal", Total: dec("1")},
		{PaymentMethod: "  ", Total: dec("1")},
		{PaymentMethod: "stripe", Total: dec("0")},
	}

	want := []MethodRevenue{
		{Method: "stripe", Amount: dec("1"), Percentage: 33},
		{Method: "paypal", Amount: dec("1"), Percentage: 33},
		{Method: UnknownMethod, Amount: dec("1"), Percentage: 33},
	}
	if diff := cmp.Diff(want, PaymentMethods(orders), decimalEqual); diff != "" {
		t.Fatalf("unexpected methods (-want +got):\n%s", diff)
	}
}

func TestPaymentMethodsZeroTotals(t *testing.T) {
	got := PaymentMethods([]order.Order{{PaymentMethod: "paypal", Total: decimal.Zero}})
	require.Len(t, got, 1)
	assert.Equal(t, int64(0), got[0].Percentage)
}
