package product

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/jmoiron/sqlx"
)

const selectProducts = `
	SELECT product_id, name, description, image_url, price, active, created_at, updated_at, version
	FROM products`

func Create(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products
		(product_id, name, description, image_url, price, active, created_at, updated_at, version)
	VALUES
		(:product_id, :name, :description, :image_url, :price, :active, :created_at, :updated_at, :version)`

	if err := database.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	UPDATE products SET
		name = :name,
		description = :description,
		image_url = :image_url,
		price = :price,
		active = :active,
		updated_at = :updated_at,
		version = version + 1
	WHERE product_id = :product_id AND version = :version`

	if err := database.NamedExecAffected(ctx, db, q, p); err != nil {
		return fmt.Errorf("updating product[%s]: %w", p.ID, err)
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	in := struct {
		ID string `db:"product_id"`
	}{id}

	const q = `DELETE FROM products WHERE product_id = :product_id`

	if err := database.NamedExecAffected(ctx, db, q, in); err != nil {
		return fmt.Errorf("deleting product[%s]: %w", id, err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Product, error) {
	in := struct {
		ID string `db:"product_id"`
	}{id}

	q := selectProducts + `
	WHERE product_id = :product_id`

	var p Product
	if err := database.NamedQueryStruct(ctx, db, q, in, &p); err != nil {
		return Product{}, fmt.Errorf("selecting product[%s]: %w", id, err)
	}
	return p, nil
}

func FetchByIDs(ctx context.Context, db sqlx.ExtContext, ids []string) ([]Product, error) {
	in := struct {
		IDs any `db:"ids"`
	}{database.InArgs(ids)}

	q := selectProducts + `
	WHERE CAST(product_id AS TEXT) = ANY(:ids)
	ORDER BY created_at`

	var ps []Product
	if err := database.NamedQuerySlice(ctx, db, q, in, &ps); err != nil {
		return nil, fmt.Errorf("selecting products by id: %w", err)
	}
	return ps, nil
}

func Query(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Product, error) {
	q := selectProducts + `
	WHERE
		(NOT :active_only OR active)
		AND (CAST(:search AS TEXT) = '' OR name ILIKE '%' || CAST(:search AS TEXT) || '%')
	ORDER BY created_at`

	var ps []Product
	if err := database.NamedQuerySlice(ctx, db, q, f, &ps); err != nil {
		return nil, fmt.Errorf("selecting products: %w", err)
	}
	return ps, nil
}
