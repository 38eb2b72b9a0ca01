package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// progressRepo implements ProgressRepo on the question_progress table.
type progressRepo struct {
	drv *entsql.Driver
}

var progressColumns = []string{
	"question_id", "attempts", "correct_attempts", "last_attempted",
	"time_spent", "status", "bookmarked", "note", "mastered_at",
}

func (r *progressRepo) SaveProgress(ctx context.Context, data ProgressData) error {
	insert := builder().Insert(tableProgress).
		Columns(progressColumns...).
		Values(
			data.QuestionID,
			data.Attempts,
			data.CorrectAttempts,
			toMillis(data.LastAttempted),
			data.TimeSpent,
			data.Status,
			boolToInt(data.Bookmarked),
			data.Note,
			toMillis(data.MasteredAt),
		).
		OnConflict(
			entsql.ConflictColumns("question_id"),
			entsql.ResolveWithNewValues(),
		)
	if err := exec(ctx, r.drv, insert); err != nil {
		return fmt.Errorf("save progress %d: %w", data.QuestionID, err)
	}
	return nil
}

func (r *progressRepo) LoadProgress(ctx context.Context) ([]ProgressData, error) {
	query, args := builder().Select(progressColumns...).
		From(entsql.Table(tableProgress)).
		OrderBy("question_id").
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressData
	for rows.Next() {
		var (
			d             ProgressData
			last, mastery sql.NullInt64
			bookmarked    int
		)
		if err := rows.Scan(
			&d.QuestionID, &d.Attempts, &d.CorrectAttempts, &last,
			&d.TimeSpent, &d.Status, &bookmarked, &d.Note, &mastery,
		); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		d.LastAttempted = fromMillis(last)
		d.MasteredAt = fromMillis(mastery)
		d.Bookmarked = bookmarked != 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return out, nil
}

func (r *progressRepo) DeleteAllProgress(ctx context.Context) error {
	if err := exec(ctx, r.drv, builder().Delete(tableProgress)); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}
