package course

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/jmoiron/sqlx"
)

const selectCourses = `
	SELECT course_id, name, description, image_url, price, created_at, updated_at, version
	FROM courses`

func Create(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	INSERT INTO courses
		(course_id, name, description, image_url, price, created_at, updated_at, version)
	VALUES
		(:course_id, :name, :description, :image_url, :price, :created_at, :updated_at, :version)`

	if err := database.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}
	return nil
}

// Update applies c if its version still matches the stored one and bumps it.
func Update(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	UPDATE courses SET
		name = :name,
		description = :description,
		image_url = :image_url,
		price = :price,
		updated_at = :updated_at,
		version = version + 1
	WHERE course_id = :course_id AND version = :version`

	if err := database.NamedExecAffected(ctx, db, q, c); err != nil {
		return fmt.Errorf("updating course[%s]: %w", c.ID, err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	in := struct {
		ID string `db:"course_id"`
	}{id}

	q := selectCourses + `
	WHERE course_id = :course_id`

	var c Course
	if err := database.NamedQueryStruct(ctx, db, q, in, &c); err != nil {
		return Course{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}
	return c, nil
}

func FetchByIDs(ctx context.Context, db sqlx.ExtContext, ids []string) ([]Course, error) {
	in := struct {
		IDs any `db:"ids"`
	}{database.InArgs(ids)}

	q := selectCourses + `
	WHERE CAST(course_id AS TEXT) = ANY(:ids)
	ORDER BY created_at`

	var cs []Course
	if err := database.NamedQuerySlice(ctx, db, q, in, &cs); err != nil {
		return nil, fmt.Errorf("selecting courses by id: %w", err)
	}
	return cs, nil
}

func Query(ctx context.Context, db sqlx.ExtContext, search string) ([]Course, error) {
	in := struct {
		Search string `db:"search"`
	}{search}

	q := selectCourses + `
	WHERE CAST(:search AS TEXT) = '' OR name ILIKE '%' || CAST(:search AS TEXT) || '%'
	ORDER BY created_at`

	var cs []Course
	if err := database.NamedQuerySlice(ctx, db, q, in, &cs); err != nil {
		return nil, fmt.Errorf("selecting courses: %w", err)
	}
	return cs, nil
}

// QueryOwned lists the courses bought by userID through completed orders.
func QueryOwned(ctx context.Context, db sqlx.ExtContext, userID string) ([]Course, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `
	SELECT DISTINCT c.course_id, c.name, c.description, c.image_url, c.price, c.created_at, c.updated_at, c.version
	FROM courses c
	JOIN order_items i ON i.ref_id = CAST(c.course_id AS TEXT) AND i.item_type = 'course'
	JOIN orders o ON o.order_id = i.order_id
	WHERE o.user_id = :user_id AND o.status = 'completed'
	ORDER BY c.created_at`

	var cs []Course
	if err := database.NamedQuerySlice(ctx, db, q, in, &cs); err != nil {
		return nil, fmt.Errorf("selecting owned courses: %w", err)
	}
	return cs, nil
}
