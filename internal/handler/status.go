package handler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/squarefall/spawner/internal/console"
	"go.uber.org/zap"
)

const (
	defaultHistory = 5
	maxHistory     = 50
)

// HandleStatus reports the flow, wave and pool state in one line.
func HandleStatus(sess *console.Session, deps *Deps) {
	snap := deps.Waves.Snapshot()
	wave := min(snap.CurrentWave+1, deps.Waves.TotalWaves())
	sess.Send(fmt.Sprintf(
		"status flow=%s waves=%s wave=%d/%d progress=%.2f multiplier=%.2f active=%d/%d missed=%d/%d spawned=%d skipped=%d fallbacks=%d",
		deps.Flow.State(), snap.State, wave, deps.Waves.TotalWaves(), snap.Progress, snap.Multiplier,
		deps.Pool.ActiveCount(), deps.Waves.Ceiling(), deps.Flow.Missed(), deps.Flow.Limit(),
		snap.Spawned, snap.Skipped, deps.Pool.Fallbacks(),
	))
}

// HandleHistory lists recent runs from the database.
func HandleHistory(sess *console.Session, args []string, deps *Deps) {
	if deps.History == nil {
		sess.Send("error history disabled")
		return
	}
	limit := defaultHistory
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			sess.Send("error usage: history [n]")
			return
		}
		limit = min(n, maxHistory)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	runs, err := deps.History.Recent(ctx, limit)
	if err != nil {
		deps.Log.Error("history query failed", zap.Error(err))
		sess.Send("error history unavailable")
		return
	}
	for _, r := range runs {
		sess.Send(fmt.Sprintf("run %d %s result=%s waves=%d/%d missed=%d spawned=%d duration=%s",
			r.ID, r.EndedAt.UTC().Format(time.RFC3339), r.Result, r.WavesCleared, r.TotalWaves,
			r.Missed, r.Spawned, r.EndedAt.Sub(r.StartedAt).Round(time.Second)))
	}
	sess.Send(fmt.Sprintf("ok %d runs", len(runs)))
}
