package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/wishfactory/wishfactory/store"
)

func (d *DB) UpsertSimilarityScore(ctx context.Context, upsert *store.SimilarityScore) (*store.SimilarityScore, error) {
	// First writer wins: a concurrent computation of the same pair may
	// have inserted the row already, in which case this write is
	// silently dropped and the stored row is returned instead.
	stmt := `
		INSERT INTO similarity_score (
			wish_id_a, wish_id_b, cosine, jaccard, levenshtein, tfidf, overall, computed_ts
		)
		VALUES (` + placeholders(8) + `)
		ON CONFLICT (wish_id_a, wish_id_b) DO NOTHING`

	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.WishIDA, upsert.WishIDB,
		upsert.Cosine, upsert.Jaccard, upsert.Levenshtein, upsert.TFIDF,
		upsert.Overall, upsert.ComputedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert similarity score")
	}

	stored, err := d.GetSimilarityScore(ctx, &store.FindSimilarityScore{
		WishIDA: &upsert.WishIDA,
		WishIDB: &upsert.WishIDB,
	})
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.Errorf("similarity score not found after upsert: pair (%d, %d)", upsert.WishIDA, upsert.WishIDB)
	}
	return stored, nil
}

func (d *DB) UpdateSimilarityScore(ctx context.Context, update *store.UpdateSimilarityScore) error {
	stmt := `
		UPDATE similarity_score
		SET cosine = ?, jaccard = ?, levenshtein = ?, tfidf = ?, overall = ?, computed_ts = ?
		WHERE id = ?`

	if _, err := d.db.ExecContext(ctx, stmt,
		update.Cosine, update.Jaccard, update.Levenshtein, update.TFIDF,
		update.Overall, update.ComputedTs, update.ID,
	); err != nil {
		return errors.Wrap(err, "failed to update similarity score")
	}
	return nil
}

func (d *DB) GetSimilarityScore(ctx context.Context, find *store.FindSimilarityScore) (*store.SimilarityScore, error) {
	limit := 1
	find.Limit = &limit
	list, err := d.ListSimilarityScores(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) ListSimilarityScores(ctx context.Context, find *store.FindSimilarityScore) ([]*store.SimilarityScore, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.WishIDA != nil && find.WishIDB != nil {
		a, b := store.NormalizePair(*find.WishIDA, *find.WishIDB)
		where, args = append(where, "wish_id_a = "+placeholder(len(args)+1)), append(args, a)
		where, args = append(where, "wish_id_b = "+placeholder(len(args)+1)), append(args, b)
	}
	if v := find.WishID; v != nil {
		where = append(where, "(wish_id_a = "+placeholder(len(args)+1)+" OR wish_id_b = "+placeholder(len(args)+2)+")")
		args = append(args, *v, *v)
	}
	if v := find.MinOverall; v != nil {
		where, args = append(where, "overall >= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, wish_id_a, wish_id_b, cosine, jaccard, levenshtein, tfidf, overall, computed_ts
		FROM similarity_score
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY overall DESC, id ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query similarity scores")
	}
	defer rows.Close()

	return scanSimilarityScores(rows)
}

func (d *DB) ListStaleSimilarityScores(ctx context.Context, cutoffTs int64, limit int) ([]*store.SimilarityScore, error) {
	query := `
		SELECT
			id, wish_id_a, wish_id_b, cosine, jaccard, levenshtein, tfidf, overall, computed_ts
		FROM similarity_score
		WHERE computed_ts < ?
		ORDER BY computed_ts ASC
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, cutoffTs, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query stale similarity scores")
	}
	defer rows.Close()

	return scanSimilarityScores(rows)
}

func (d *DB) DeleteSimilarityScoresInvolving(ctx context.Context, wishID int32) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM similarity_score WHERE wish_id_a = ? OR wish_id_b = ?`, wishID, wishID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete similarity scores involving wish %d", wishID)
	}
	return result.RowsAffected()
}

func (d *DB) DeleteSimilarityScoresOlderThan(ctx context.Context, cutoffTs int64) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM similarity_score WHERE computed_ts < ?`, cutoffTs)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete similarity scores older than %d", cutoffTs)
	}
	return result.RowsAffected()
}

func (d *DB) GetSimilarityStats(ctx context.Context, find *store.FindSimilarityStats) (*store.SimilarityStats, error) {
	stats := &store.SimilarityStats{}

	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wish WHERE language = ? AND status != ?`,
		find.Language, store.Archived,
	).Scan(&stats.WishCount); err != nil {
		return nil, errors.Wrap(err, "failed to count wishes")
	}

	// Only pairs whose both members live in the language partition and
	// are still comparison-eligible count towards the aggregate.
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN s.overall >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(s.overall), 0)
		FROM similarity_score s
		JOIN wish a ON a.id = s.wish_id_a
		JOIN wish b ON b.id = s.wish_id_b
		WHERE a.language = ? AND b.language = ?
			AND a.status != ? AND b.status != ?`

	var avg sql.NullFloat64
	if err := d.db.QueryRowContext(ctx, query,
		find.DuplicateThreshold,
		find.Language, find.Language,
		store.Archived, store.Archived,
	).Scan(&stats.CachedPairs, &stats.DuplicatePairs, &avg); err != nil {
		return nil, errors.Wrap(err, "failed to aggregate similarity scores")
	}
	if avg.Valid {
		stats.AverageOverall = avg.Float64
	}

	return stats, nil
}

func scanSimilarityScores(rows *sql.Rows) ([]*store.SimilarityScore, error) {
	list := make([]*store.SimilarityScore, 0)
	for rows.Next() {
		var score store.SimilarityScore
		if err := rows.Scan(
			&score.ID,
			&score.WishIDA,
			&score.WishIDB,
			&score.Cosine,
			&score.Jaccard,
			&score.Levenshtein,
			&score.TFIDF,
			&score.Overall,
			&score.ComputedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan similarity score")
		}
		list = append(list, &score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
