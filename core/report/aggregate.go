// Package report turns snapshots of orders and profiles into the statistics
// shown on the admin dashboard. The aggregate functions are pure: they never
// fail, never divide by zero and treat nil input as empty.
package report

import (
	"sort"
	"strings"

	"github.com/irsalhamdi/coaching-portal/core/order"
	"github.com/irsalhamdi/coaching-portal/core/profile"
	"github.com/shopspring/decimal"
)

// Source is the revenue category of an order item.
type Source string

const (
	SourceCourses       Source = "Courses"
	SourceSubscriptions Source = "Subscriptions"
	SourceProducts      Source = "Products"
)

// Sources in display order.
var Sources = []Source{SourceCourses, SourceSubscriptions, SourceProducts}

const (
	UnknownMethod = "Unknown"
	DefaultTopN   = 5
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Classify maps a free-text item type to its source by substring. Anything
// that is neither a course nor a subscription is a product.
func Classify(itemType string) Source {
	switch {
	case strings.Contains(itemType, order.ItemCourse):
		return SourceCourses
	case strings.Contains(itemType, order.ItemSubscription):
		return SourceSubscriptions
	}
	return SourceProducts
}

// percent is part / max(whole, 1) * 100.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	return part.Div(decimal.Max(whole, one)).Mul(hundred)
}

type TierCount struct {
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

type OverviewStats struct {
	TotalRevenue            decimal.Decimal            `json:"totalRevenue"`
	MonthlyRecurringRevenue decimal.Decimal            `json:"monthlyRecurringRevenue"`
	AverageOrderValue       decimal.Decimal            `json:"averageOrderValue"`
	TotalOrders             int                        `json:"totalOrders"`
	TotalProfiles           int                        `json:"totalProfiles"`
	MembershipCounts        map[profile.Tier]TierCount `json:"membershipCounts"`
	UnclassifiedProfiles    int                        `json:"unclassifiedProfiles"`
}

// BuildOverview computes revenue totals and the membership distribution.
//
// Only completed orders count towards revenue, but the average order value
// divides by every order given. The average is the exact quotient at the
// decimal package's division precision; round it when rendering. Profiles
// whose tier is not one of the known tiers are not attributed to any tier;
// they are reported in UnclassifiedProfiles and still count towards the
// percentage denominator.
func BuildOverview(orders []order.Order, profiles []profile.Profile) OverviewStats {
	st := OverviewStats{
		TotalRevenue:            decimal.Zero,
		MonthlyRecurringRevenue: decimal.Zero,
		AverageOrderValue:       decimal.Zero,
		TotalOrders:             len(orders),
		TotalProfiles:           len(profiles),
		MembershipCounts:        make(map[profile.Tier]TierCount, len(profile.Tiers)),
	}

	for _, o := range orders {
		if o.Status == order.Completed {
			st.TotalRevenue = st.TotalRevenue.Add(o.Total)
		}
	}

	if len(orders) > 0 {
		st.AverageOrderValue = st.TotalRevenue.Div(decimal.NewFromInt(int64(len(orders))))
	}

	counts := make(map[profile.Tier]int, len(profile.Tiers))
	for _, p := range profiles {
		tier := p.Tier()
		if !tier.Known() {
			st.UnclassifiedProfiles++
			continue
		}
		counts[tier]++

		if p.Active() {
			st.MonthlyRecurringRevenue = st.MonthlyRecurringRevenue.Add(tier.MonthlyPrice())
		}
	}

	n := decimal.NewFromInt(int64(len(profiles)))
	for _, tier := range profile.Tiers {
		c := counts[tier]
		st.MembershipCounts[tier] = TierCount{
			Count:      c,
			Percentage: percent(decimal.NewFromInt(int64(c)), n).StringFixed(1),
		}
	}

	return st
}

type MonthRevenue struct {
	Month         string          `json:"month"`
	Revenue       decimal.Decimal `json:"revenue"`
	Courses       decimal.Decimal `json:"courses"`
	Subscriptions decimal.Decimal `json:"subscriptions"`
	Products      decimal.Decimal `json:"products"`
}

// MonthlyHistory buckets orders by the short month name of their creation
// time in UTC. The label carries no year, so the same month of different
// years shares a bucket. Buckets appear in the order their month is first
// seen in orders.
func MonthlyHistory(orders []order.Order) []MonthRevenue {
	out := make([]MonthRevenue, 0)
	idx := make(map[string]int)

	for _, o := range orders {
		label := o.CreatedAt.UTC().Format("Jan")

		i, ok := idx[label]
		if !ok {
			i = len(out)
			idx[label] = i
			out = append(out, MonthRevenue{
				Month:         label,
				Revenue:       decimal.Zero,
				Courses:       decimal.Zero,
				Subscriptions: decimal.Zero,
				Products:      decimal.Zero,
			})
		}

		m := &out[i]
		m.Revenue = m.Revenue.Add(o.Total)

		for _, it := range o.Items {
			switch Classify(it.ItemType) {
			case SourceCourses:
				m.Courses = m.Courses.Add(it.Price)
			case SourceSubscriptions:
				m.Subscriptions = m.Subscriptions.Add(it.Price)
			default:
				m.Products = m.Products.Add(it.Price)
			}
		}
	}

	return out
}

type SourceRevenue struct {
	Source     Source          `json:"source"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage string          `json:"percentage"`
}

// RevenueBySource sums item prices per source. All three sources are always
// present, in display order.
func RevenueBySource(orders []order.Order) []SourceRevenue {
	amounts := make(map[Source]decimal.Decimal, len(Sources))
	sum := decimal.Zero

	for _, o := range orders {
		for _, it := range o.Items {
			src := Classify(it.ItemType)
			amounts[src] = amounts[src].Add(it.Price)
			sum = sum.Add(it.Price)
		}
	}

	out := make([]SourceRevenue, 0, len(Sources))
	for _, src := range Sources {
		amt := amounts[src]
		out = append(out, SourceRevenue{
			Source:     src,
			Amount:     amt,
			Percentage: percent(amt, sum).StringFixed(1),
		})
	}
	return out
}

type ProductRevenue struct {
	Name       string          `json:"name"`
	Revenue    decimal.Decimal `json:"revenue"`
	SalesCount int             `json:"salesCount"`
}

// TopProducts ranks item names by revenue, highest first. Names with equal
// revenue keep the order in which they were first seen. n <= 0 means
// DefaultTopN.
func TopProducts(orders []order.Order, n int) []ProductRevenue {
	if n <= 0 {
		n = DefaultTopN
	}

	out := make([]ProductRevenue, 0)
	idx := make(map[string]int)

	for _, o := range orders {
		for _, it := range o.Items {
			i, ok := idx[it.Name]
			if !ok {
				i = len(out)
				idx[it.Name] = i
				out = append(out, ProductRevenue{Name: it.Name, Revenue: decimal.Zero})
			}
			out[i].Revenue = out[i].Revenue.Add(it.Price)
			out[i].SalesCount++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue.GreaterThan(out[j].Revenue)
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}

type MethodRevenue struct {
	Method     string          `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage int64           `json:"percentage"`
}

// PaymentMethods sums order totals per payment method. A blank method is
// reported as UnknownMethod. Percentages are rounded to whole points, so
// they may not add up to exactly 100.
func PaymentMethods(orders []order.Order) []MethodRevenue {
	out := make([]MethodRevenue, 0)
	idx := make(map[string]int)
	sum := decimal.Zero

	for _, o := range orders {
		method := strings.TrimSpace(o.PaymentMethod)
		if method == "" {
			method = UnknownMethod
		}

		i, ok := idx[method]
		if !ok {
			i = len(out)
			idx[method] = i
			out = append(out, MethodRevenue{Method: method, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(o.Total)
		sum = sum.Add(o.Total)
	}

	if sum.IsZero() {
		return out
	}

	for i := range out {
		out[i].Percentage = out[i].Amount.Div(sum).Mul(hundred).Round(0).IntPart()
	}
	return out
}
