package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo backed by the ent driver and the global
// sequence counter.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	insert := builder().Insert(tableLLMRequest).
		Columns(
			"sequence", "timestamp", "provider", "model", "purpose",
			"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
		).
		Values(
			seqNum,
			time.Now().UnixMilli(),
			data.Provider,
			data.Model,
			data.Purpose,
			data.InputTokens,
			data.OutputTokens,
			data.LatencyMs,
			boolToInt(data.Success),
			data.ErrorMessage,
		)
	if err := exec(ctx, r.drv, insert); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) LLMUsage(ctx context.Context) (LLMUsage, error) {
	query, args := builder().SelectExpr(
		entsql.Expr("COUNT(*)"),
		entsql.Expr("COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)"),
		entsql.Expr("COALESCE(SUM(input_tokens), 0)"),
		entsql.Expr("COALESCE(SUM(output_tokens), 0)"),
	).
		From(entsql.Table(tableLLMRequest)).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return LLMUsage{}, fmt.Errorf("query LLM usage: %w", err)
	}
	defer rows.Close()

	var u LLMUsage
	if rows.Next() {
		var failures, in, out sql.NullInt64
		if err := rows.Scan(&u.Requests, &failures, &in, &out); err != nil {
			return LLMUsage{}, fmt.Errorf("scan LLM usage: %w", err)
		}
		u.Failures = int(failures.Int64)
		u.InputTokens = int(in.Int64)
		u.OutputTokens = int(out.Int64)
	}
	return u, rows.Err()
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	query, args := builder().SelectExpr(
		entsql.Expr("provider"),
		entsql.Expr("model"),
		entsql.Expr("COUNT(*)"),
		entsql.Expr("COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)"),
		entsql.Expr("COALESCE(SUM(input_tokens), 0)"),
		entsql.Expr("COALESCE(SUM(output_tokens), 0)"),
	).
		From(entsql.Table(tableLLMRequest)).
		GroupBy("provider", "model").
		OrderBy("provider", "model").
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query LLM usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var mu ModelUsage
		if err := rows.Scan(&mu.Provider, &mu.Model, &mu.Requests, &mu.Failures, &mu.InputTokens, &mu.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan LLM usage by model: %w", err)
		}
		out = append(out, mu)
	}
	return out, rows.Err()
}
