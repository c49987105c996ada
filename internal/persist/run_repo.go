package persist

import (
	"context"
	"fmt"
	"time"
)

// RunRecord is one row of the run history.
type RunRecord struct {
	ID           int64
	Result       string
	WavesCleared int
	TotalWaves   int
	Missed       int
	Spawned      int
	StartedAt    time.Time
	EndedAt      time.Time
}

// RunSummary aggregates the whole history.
type RunSummary struct {
	Total  int
	Wins   int
	Losses int
}

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Insert stores rec and fills in its ID.
func (r *RunRepo) Insert(ctx context.Context, rec *RunRecord) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO runs (result, waves_cleared, total_waves, missed, spawned, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		rec.Result, rec.WavesCleared, rec.TotalWaves, rec.Missed, rec.Spawned, rec.StartedAt, rec.EndedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (r *RunRepo) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, result, waves_cleared, total_waves, missed, spawned, started_at, ended_at
		 FROM runs ORDER BY ended_at DESC, id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Result, &rec.WavesCleared, &rec.TotalWaves,
			&rec.Missed, &rec.Spawned, &rec.StartedAt, &rec.EndedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summary counts runs by result.
func (r *RunRepo) Summary(ctx context.Context) (RunSummary, error) {
	var s RunSummary
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE result = 'win'),
		        count(*) FILTER (WHERE result = 'lose')
		 FROM runs`,
	).Scan(&s.Total, &s.Wins, &s.Losses)
	if err != nil {
		return RunSummary{}, fmt.Errorf("summarize runs: %w", err)
	}
	return s, nil
}
