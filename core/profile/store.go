package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/jmoiron/sqlx"
)

const selectProfiles = `
	SELECT
		p.profile_id, u.email, p.first_name, p.last_name,
		COALESCE(p.membership_tier, '') AS membership_tier,
		COALESCE(p.subscription_status, '') AS subscription_status,
		p.created_at, p.updated_at
	FROM profiles p
	JOIN users u ON u.user_id = p.profile_id`

func Create(ctx context.Context, db sqlx.ExtContext, p Profile) error {
	const q = `
	INSERT INTO profiles
		(profile_id, first_name, last_name, membership_tier, subscription_status, created_at, updated_at)
	VALUES
		(:profile_id, :first_name, :last_name, NULLIF(:membership_tier, ''), NULLIF(:subscription_status, ''), :created_at, :updated_at)`

	if err := database.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Profile, error) {
	in := struct {
		ID string `db:"profile_id"`
	}{id}

	q := selectProfiles + `
	WHERE p.profile_id = :profile_id`

	var p Profile
	if err := database.NamedQueryStruct(ctx, db, q, in, &p); err != nil {
		return Profile{}, fmt.Errorf("selecting profile[%s]: %w", id, err)
	}
	return p, nil
}

// Query lists profiles ordered by creation time. An empty filter returns
// every profile.
func Query(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Profile, error) {
	q := selectProfiles + `
	WHERE
		(CAST(:tier AS TEXT) = '' OR COALESCE(p.membership_tier, 'basic') = CAST(:tier AS TEXT))
		AND (
			CAST(:search AS TEXT) = ''
			OR (p.first_name || ' ' || p.last_name) ILIKE '%' || CAST(:search AS TEXT) || '%'
			OR u.email ILIKE '%' || CAST(:search AS TEXT) || '%'
		)
	ORDER BY p.created_at`

	var ps []Profile
	if err := database.NamedQuerySlice(ctx, db, q, f, &ps); err != nil {
		return nil, fmt.Errorf("selecting profiles: %w", err)
	}
	return ps, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Profile) error {
	const q = `
	UPDATE profiles SET
		first_name = :first_name,
		last_name = :last_name,
		updated_at = :updated_at
	WHERE profile_id = :profile_id`

	if err := database.NamedExecAffected(ctx, db, q, p); err != nil {
		return fmt.Errorf("updating profile[%s]: %w", p.ID, err)
	}
	return nil
}

func UpdateMembership(ctx context.Context, db sqlx.ExtContext, id string, up MembershipUp, now time.Time) error {
	in := struct {
		ID        string    `db:"profile_id"`
		Tier      Tier      `db:"membership_tier"`
		Status    string    `db:"subscription_status"`
		UpdatedAt time.Time `db:"updated_at"`
	}{id, up.Tier, up.SubscriptionStatus, now}

	const q = `
	UPDATE profiles SET
		membership_tier = :membership_tier,
		subscription_status = NULLIF(:subscription_status, ''),
		updated_at = :updated_at
	WHERE profile_id = :profile_id`

	if err := database.NamedExecAffected(ctx, db, q, in); err != nil {
		return fmt.Errorf("updating membership of profile[%s]: %w", id, err)
	}
	return nil
}
