package order

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/jmoiron/sqlx"
)

const selectOrders = `
	SELECT
		order_id, user_id, provider_id,
		COALESCE(payment_method, '') AS payment_method,
		status,
		COALESCE(total, 0) AS total,
		created_at, updated_at
	FROM orders`

func Create(ctx context.Context, db sqlx.ExtContext, o Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, provider_id, payment_method, status, total, created_at, updated_at)
	VALUES
		(:order_id, :user_id, :provider_id, :payment_method, :status, :total, :created_at, :updated_at)`

	if err := database.NamedExecContext(ctx, db, q, o); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(item_id, order_id, ref_id, name, item_type, price, created_at)
	VALUES
		(:item_id, :order_id, :ref_id, :name, :item_type, :price, :created_at)`

	if err := database.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `
	UPDATE orders SET
		status = :status,
		updated_at = :updated_at
	WHERE order_id = :order_id`

	if err := database.NamedExecAffected(ctx, db, q, up); err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", up.ID, err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	in := struct {
		ID string `db:"order_id"`
	}{id}

	q := selectOrders + `
	WHERE order_id = :order_id`

	var o Order
	if err := database.NamedQueryStruct(ctx, db, q, in, &o); err != nil {
		return Order{}, fmt.Errorf("selecting order[%s]: %w", id, err)
	}

	ords := []Order{o}
	if err := attachItems(ctx, db, ords); err != nil {
		return Order{}, err
	}
	return ords[0], nil
}

func FetchByProviderID(ctx context.Context, db sqlx.ExtContext, providerID string) (Order, error) {
	in := struct {
		ProviderID string `db:"provider_id"`
	}{providerID}

	q := selectOrders + `
	WHERE provider_id = :provider_id`

	var o Order
	if err := database.NamedQueryStruct(ctx, db, q, in, &o); err != nil {
		return Order{}, fmt.Errorf("selecting order by provider id[%s]: %w", providerID, err)
	}

	ords := []Order{o}
	if err := attachItems(ctx, db, ords); err != nil {
		return Order{}, err
	}
	return ords[0], nil
}

// Query lists orders with their items embedded. Search matches item names
// and the payment method.
func Query(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Order, error) {
	dir := "DESC"
	if f.Sort == "asc" {
		dir = "ASC"
	}

	q := selectOrders + `
	WHERE
		(CAST(:user_id AS TEXT) = '' OR CAST(user_id AS TEXT) = CAST(:user_id AS TEXT))
		AND (CAST(:status AS TEXT) = '' OR status = CAST(:status AS TEXT))
		AND (
			CAST(:search AS TEXT) = ''
			OR payment_method ILIKE '%' || CAST(:search AS TEXT) || '%'
			OR EXISTS (
				SELECT 1 FROM order_items i
				WHERE i.order_id = orders.order_id AND i.name ILIKE '%' || CAST(:search AS TEXT) || '%'
			)
		)
	ORDER BY created_at ` + dir

	var ords []Order
	if err := database.NamedQuerySlice(ctx, db, q, f, &ords); err != nil {
		return nil, fmt.Errorf("selecting orders: %w", err)
	}

	if err := attachItems(ctx, db, ords); err != nil {
		return nil, err
	}
	return ords, nil
}

func attachItems(ctx context.Context, db sqlx.ExtContext, ords []Order) error {
	if len(ords) == 0 {
		return nil
	}

	ids := make([]string, len(ords))
	for i, o := range ords {
		ids[i] = o.ID
	}

	in := struct {
		IDs any `db:"ids"`
	}{database.InArgs(ids)}

	const q = `
	SELECT
		item_id, order_id, ref_id, name,
		COALESCE(item_type, '') AS item_type,
		COALESCE(price, 0) AS price,
		created_at
	FROM order_items
	WHERE CAST(order_id AS TEXT) = ANY(:ids)
	ORDER BY created_at, item_id`

	var items []Item
	if err := database.NamedQuerySlice(ctx, db, q, in, &items); err != nil {
		return fmt.Errorf("selecting order items: %w", err)
	}

	byOrder := make(map[string][]Item, len(ords))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	for i := range ords {
		ords[i].Items = byOrder[ords[i].ID]
		if ords[i].Items == nil {
			ords[i].Items = []Item{}
		}
	}
	return nil
}
