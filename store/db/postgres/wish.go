package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/wishfactory/wishfactory/store"
)

func (d *DB) CreateWish(ctx context.Context, create *store.Wish) (*store.Wish, error) {
	fields := []string{"uid", "status", "text", "language", "type", "event_type"}
	placeholderValues := []any{
		create.UID, create.Status, create.Text, create.Language, create.Type, create.EventType,
	}

	// Add optional timestamps
	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		placeholderValues = append(placeholderValues, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields = append(fields, "updated_ts")
		placeholderValues = append(placeholderValues, create.UpdatedTs)
	}

	stmt := `INSERT INTO wish (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create wish")
	}

	return create, nil
}

func (d *DB) ListWishes(ctx context.Context, find *store.FindWish) ([]*store.Wish, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "wish.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "wish.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Language; v != nil {
		where, args = append(where, "wish.language = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Type; v != nil {
		where, args = append(where, "wish.type = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.EventType; v != nil {
		where, args = append(where, "wish.event_type = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "wish.status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ExcludeStatus; v != nil {
		where, args = append(where, "wish.status != "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ExcludeID; v != nil {
		where, args = append(where, "wish.id != "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, uid, created_ts, updated_ts, status,
			text, language, type, event_type
		FROM wish
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY wish.updated_ts DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query wishes")
	}
	defer rows.Close()

	list := make([]*store.Wish, 0)
	for rows.Next() {
		var wish store.Wish
		if err := rows.Scan(
			&wish.ID,
			&wish.UID,
			&wish.CreatedTs,
			&wish.UpdatedTs,
			&wish.Status,
			&wish.Text,
			&wish.Language,
			&wish.Type,
			&wish.EventType,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan wish")
		}
		list = append(list, &wish)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateWish(ctx context.Context, update *store.UpdateWish) error {
	set, args := []string{}, []any{}

	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	} else {
		set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())")
	}
	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Text; v != nil {
		set, args = append(set, "text = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Language; v != nil {
		set, args = append(set, "language = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Type; v != nil {
		set, args = append(set, "type = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.EventType; v != nil {
		set, args = append(set, "event_type = "+placeholder(len(args)+1)), append(args, *v)
	}

	stmt := `UPDATE wish SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)+1)
	args = append(args, update.ID)

	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update wish")
	}

	return nil
}

func (d *DB) DeleteWish(ctx context.Context, delete *store.DeleteWish) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM wish WHERE id = $1`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete wish")
	}
	return nil
}
