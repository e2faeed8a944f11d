package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/irsalhamdi/coaching-portal/api/weberr"
	"github.com/irsalhamdi/coaching-portal/validate"
	"github.com/shopspring/decimal"
)

func TestTierDefaultsToBasic(t *testing.T) {
	var p Profile
	if p.Tier() != TierBasic {
		t.Fatalf("expected basic, got %q", p.Tier())
	}

	p.MembershipTier = TierUltimate
	if p.Tier() != TierUltimate {
		t.Fatalf("expected ultimate, got %q", p.Tier())
	}
}

func TestTierPrices(t *testing.T) {
	tests := []struct {
		tier Tier
		want int64
	}{
		{TierBasic, 0},
		{TierPremium, 29},
		{TierUltimate, 99},
		{Tier("Premium"), 0},
		{Tier("gold"), 0},
	}

	for _, tt := range tests {
		if got := tt.tier.MonthlyPrice(); !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Errorf("%q: expected %d, got %s", tt.tier, tt.want, got)
		}
	}
}

func TestTierKnownIsCaseSensitive(t *testing.T) {
	if !TierPremium.Known() {
		t.Fatal("premium must be known")
	}
	if Tier("PREMIUM").Known() {
		t.Fatal("tier matching must be case-sensitive")
	}
}

func TestTierTitle(t *testing.T) {
	if got := TierUltimate.Title(); got != "Ultimate" {
		t.Fatalf("expected Ultimate, got %q", got)
	}
}

func TestMembershipUpValidation(t *testing.T) {
	if err := validate.Check(MembershipUp{Tier: TierPremium, SubscriptionStatus: SubscriptionActive}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if err := validate.Check(MembershipUp{Tier: "gold"}); err == nil {
		t.Fatal("expected unknown tier to be rejected")
	}
}

// The tier filter is checked before the database is touched.
func TestHandleListRejectsUnknownTier(t *testing.T) {
	for _, tier := range []string{"gold", "Premium"} {
		r := httptest.NewRequest(http.MethodGet, "/admin/profiles?tier="+tier, nil)

		err := HandleList(nil)(context.Background(), httptest.NewRecorder(), r)

		if _, status, ok := weberr.Response(err); !ok || status != http.StatusBadRequest {
			t.Errorf("tier %q: expected 400, got %d (%v)", tier, status, err)
		}
	}
}
