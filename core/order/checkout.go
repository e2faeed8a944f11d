package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/coaching-portal/core/course"
	"github.com/irsalhamdi/coaching-portal/core/product"
	"github.com/irsalhamdi/coaching-portal/core/profile"
	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/irsalhamdi/coaching-portal/validate"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrEmptyCheckout = errors.New("no items to checkout")

// Line is a priced item about to be sold.
type Line struct {
	RefID       string
	Name        string
	Description string
	ItemType    string
	Price       decimal.Decimal
}

func total(lines []Line) decimal.Decimal {
	tot := decimal.Zero
	for _, l := range lines {
		tot = tot.Add(l.Price)
	}
	return tot
}

// checkout prices the requested items from the catalog.
func checkout(ctx context.Context, db *sqlx.DB, req Checkout) ([]Line, error) {
	var lines []Line

	if len(req.CourseIDs) > 0 {
		cs, err := course.FetchByIDs(ctx, db, req.CourseIDs)
		if err != nil {
			return nil, fmt.Errorf("fetching courses: %w", err)
		}
		if len(cs) != len(dedup(req.CourseIDs)) {
			return nil, fmt.Errorf("%w: unknown course in checkout", database.ErrDBNotFound)
		}
		for _, c := range cs {
			lines = append(lines, Line{RefID: c.ID, Name: c.Name, Description: c.Description, ItemType: ItemCourse, Price: c.Price})
		}
	}

	if len(req.ProductIDs) > 0 {
		ps, err := product.FetchByIDs(ctx, db, req.ProductIDs)
		if err != nil {
			return nil, fmt.Errorf("fetching products: %w", err)
		}
		if len(ps) != len(dedup(req.ProductIDs)) {
			return nil, fmt.Errorf("%w: unknown product in checkout", database.ErrDBNotFound)
		}
		for _, p := range ps {
			if !p.Active {
				return nil, fmt.Errorf("%w: product %s is not for sale", database.ErrDBNotFound, p.ID)
			}
			lines = append(lines, Line{RefID: p.ID, Name: p.Name, Description: p.Description, ItemType: ItemProduct, Price: p.Price})
		}
	}

	if req.Tier != "" {
		tier := profile.Tier(req.Tier)
		lines = append(lines, Line{
			RefID:       string(tier),
			Name:        tier.Title() + " Membership",
			Description: "Monthly " + string(tier) + " membership",
			ItemType:    ItemSubscription,
			Price:       tier.MonthlyPrice(),
		})
	}

	if len(lines) == 0 {
		return nil, ErrEmptyCheckout
	}
	return lines, nil
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// prepare stores a pending order bound to the payment provider's id.
func prepare(ctx context.Context, db *sqlx.DB, userID, method, providerID string, lines []Line) (Order, error) {
	now := time.Now().UTC()
	ord := Order{
		ID:            validate.GenerateID(),
		UserID:        userID,
		ProviderID:    providerID,
		PaymentMethod: method,
		Status:        Pending,
		Total:         total(lines),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := Create(ctx, tx, ord); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, l := range lines {
			it := Item{
				ID:        validate.GenerateID(),
				OrderID:   ord.ID,
				RefID:     l.RefID,
				Name:      l.Name,
				ItemType:  l.ItemType,
				Price:     l.Price,
				CreatedAt: now,
			}

			if err := CreateItem(ctx, tx, it); err != nil {
				return fmt.Errorf("creating item: %w", err)
			}
			ord.Items = append(ord.Items, it)
		}

		return nil
	})

	if err != nil {
		return Order{}, fmt.Errorf("creating the order bound to payment[%s] for user[%s]: %w", providerID, userID, err)
	}
	return ord, nil
}

// fulfill completes the order bound to providerID. A subscription item
// upgrades the buyer's membership in the same transaction.
func fulfill(ctx context.Context, db *sqlx.DB, providerID string) (Order, error) {
	ord, err := FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return Order{}, fmt.Errorf("fetching the order bound to payment[%s]: %w", providerID, err)
	}

	if ord.Status == Completed {
		return ord, nil
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		now := time.Now().UTC()
		up := StatusUp{
			ID:        ord.ID,
			Status:    Completed,
			UpdatedAt: now,
		}

		if err := UpdateStatus(ctx, tx, up); err != nil {
			return fmt.Errorf("updating status: %w", err)
		}

		for _, it := range ord.Items {
			if it.ItemType != ItemSubscription {
				continue
			}

			mu := profile.MembershipUp{
				Tier:               profile.Tier(it.RefID),
				SubscriptionStatus: profile.SubscriptionActive,
			}
			if err := profile.UpdateMembership(ctx, tx, ord.UserID, mu, now); err != nil {
				return fmt.Errorf("upgrading membership: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return Order{}, fmt.Errorf("fulfilling the order[%s] bound to payment[%s]: %w", ord.ID, providerID, err)
	}

	ord.Status = Completed
	return ord, nil
}

// fail marks the order bound to providerID as failed unless it already
// completed.
func fail(ctx context.Context, db *sqlx.DB, providerID string) error {
	ord, err := FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return fmt.Errorf("fetching the order bound to payment[%s]: %w", providerID, err)
	}

	if ord.Status == Completed {
		return nil
	}

	up := StatusUp{ID: ord.ID, Status: Failed, UpdatedAt: time.Now().UTC()}
	if err := UpdateStatus(ctx, db, up); err != nil {
		return fmt.Errorf("failing the order[%s]: %w", ord.ID, err)
	}
	return nil
}
