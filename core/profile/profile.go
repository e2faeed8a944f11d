package profile

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tier is a membership tier. Matching is case-sensitive against the
// lower-case identifiers below.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierPremium  Tier = "premium"
	TierUltimate Tier = "ultimate"
)

// Tiers lists the known tiers in display order.
var Tiers = []Tier{TierBasic, TierPremium, TierUltimate}

const SubscriptionActive = "active"

var tierPrices = map[Tier]decimal.Decimal{
	TierBasic:    decimal.Zero,
	TierPremium:  decimal.NewFromInt(29),
	TierUltimate: decimal.NewFromInt(99),
}

func (t Tier) Known() bool {
	_, ok := tierPrices[t]
	return ok
}

// MonthlyPrice is the fixed list price of the tier; unknown tiers cost nothing.
func (t Tier) MonthlyPrice() decimal.Decimal {
	return tierPrices[t]
}

// Title is the display name, e.g. "Premium".
func (t Tier) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

type Profile struct {
	ID                 string    `json:"id" db:"profile_id"`
	Email              string    `json:"email,omitempty" db:"email"`
	FirstName          string    `json:"firstName" db:"first_name"`
	LastName           string    `json:"lastName" db:"last_name"`
	MembershipTier     Tier      `json:"membershipTier" db:"membership_tier"`
	SubscriptionStatus string    `json:"subscriptionStatus" db:"subscription_status"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// Tier returns the membership tier, defaulting to basic when none is stored.
func (p Profile) Tier() Tier {
	if p.MembershipTier == "" {
		return TierBasic
	}
	return p.MembershipTier
}

func (p Profile) Active() bool {
	return p.SubscriptionStatus == SubscriptionActive
}

type ProfileUp struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
}

type MembershipUp struct {
	Tier               Tier   `json:"tier" validate:"required,oneof=basic premium ultimate"`
	SubscriptionStatus string `json:"subscriptionStatus" validate:"omitempty,max=50"`
}

type Filter struct {
	Tier   string `db:"tier"`
	Search string `db:"search"`
}
