package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// examRepo implements ExamRepo. The current session lives in a single-row
// table; completed sessions live in exam_history.
type examRepo struct {
	drv *entsql.Driver
}

var examColumns = []string{"id", "type", "status", "started_at", "ended_at", "payload"}

func examValues(data ExamSessionData) []any {
	return []any{
		data.ID,
		data.Type,
		data.Status,
		data.StartedAt.UnixMilli(),
		toMillis(data.EndedAt),
		data.Payload,
	}
}

func (r *examRepo) SaveCurrentExam(ctx context.Context, data ExamSessionData) error {
	insert := builder().Insert(tableExamCurrent).
		Columns(append([]string{"slot"}, examColumns...)...).
		Values(append([]any{1}, examValues(data)...)...).
		OnConflict(
			entsql.ConflictColumns("slot"),
			entsql.ResolveWithNewValues(),
		)
	if err := exec(ctx, r.drv, insert); err != nil {
		return fmt.Errorf("save current exam: %w", err)
	}
	return nil
}

func (r *examRepo) LoadCurrentExam(ctx context.Context) (*ExamSessionData, error) {
	sessions, err := r.query(ctx, builder().Select(examColumns...).
		From(entsql.Table(tableExamCurrent)).
		Where(entsql.EQ("slot", 1)))
	if err != nil {
		return nil, fmt.Errorf("load current exam: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

func (r *examRepo) ClearCurrentExam(ctx context.Context) error {
	if err := exec(ctx, r.drv, builder().Delete(tableExamCurrent)); err != nil {
		return fmt.Errorf("clear current exam: %w", err)
	}
	return nil
}

func (r *examRepo) AppendExamHistory(ctx context.Context, data ExamSessionData) error {
	insert := builder().Insert(tableExamHistory).
		Columns(examColumns...).
		Values(examValues(data)...).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		)
	if err := exec(ctx, r.drv, insert); err != nil {
		return fmt.Errorf("append exam history %s: %w", data.ID, err)
	}
	return nil
}

func (r *examRepo) LoadExamHistory(ctx context.Context) ([]ExamSessionData, error) {
	sessions, err := r.query(ctx, builder().Select(examColumns...).
		From(entsql.Table(tableExamHistory)).
		OrderBy("started_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("load exam history: %w", err)
	}
	return sessions, nil
}

func (r *examRepo) DeleteExamHistory(ctx context.Context, id string) error {
	del := builder().Delete(tableExamHistory).Where(entsql.EQ("id", id))
	if err := exec(ctx, r.drv, del); err != nil {
		return fmt.Errorf("delete exam %s: %w", id, err)
	}
	return nil
}

func (r *examRepo) query(ctx context.Context, sel *entsql.Selector) ([]ExamSessionData, error) {
	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExamSessionData
	for rows.Next() {
		var (
			d       ExamSessionData
			started int64
			ended   sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.Type, &d.Status, &started, &ended, &d.Payload); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		d.StartedAt = time.UnixMilli(started).UTC()
		d.EndedAt = fromMillis(ended)
		out = append(out, d)
	}
	return out, rows.Err()
}
