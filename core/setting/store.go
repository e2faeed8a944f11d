package setting

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/coaching-portal/database"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type row struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func Upsert(ctx context.Context, db sqlx.ExtContext, key string, v Value, now time.Time) error {
	const q = `
	INSERT INTO settings (key, value, updated_at)
	VALUES (:key, :value, :updated_at)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at`

	r := row{Key: key, Value: v.Encode(), UpdatedAt: now}
	if err := database.NamedExecContext(ctx, db, q, r); err != nil {
		return fmt.Errorf("upserting setting[%s]: %w", key, err)
	}
	return nil
}

// QueryAll returns every known key, falling back to its default when it is
// not stored or its stored text no longer parses.
func QueryAll(ctx context.Context, db sqlx.ExtContext, log logrus.FieldLogger) ([]Setting, error) {
	const q = `SELECT key, value, updated_at FROM settings`

	var rows []row
	if err := database.NamedQuerySlice(ctx, db, q, struct{}{}, &rows); err != nil {
		return nil, fmt.Errorf("selecting settings: %w", err)
	}

	return merge(rows, log), nil
}

func merge(rows []row, log logrus.FieldLogger) []Setting {
	stored := make(map[string]row, len(rows))
	for _, r := range rows {
		stored[r.Key] = r
	}

	out := make([]Setting, 0, len(keys))
	for _, k := range Keys() {
		s := Setting{Key: k.Name, Value: k.Default}

		if r, ok := stored[k.Name]; ok {
			v, err := k.Parse(r.Value)
			if err != nil {
				log.WithField("key", k.Name).Warnf("ignoring stored setting: %v", err)
			} else {
				updated := r.UpdatedAt
				s.Value = v
				s.UpdatedAt = &updated
			}
		}
		out = append(out, s)
	}
	return out
}
