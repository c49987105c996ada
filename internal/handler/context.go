package handler

import (
	"context"

	"github.com/squarefall/spawner/internal/console"
	"github.com/squarefall/spawner/internal/flow"
	"github.com/squarefall/spawner/internal/persist"
	"github.com/squarefall/spawner/internal/system"
	"go.uber.org/zap"
)

// FlowControl is the part of the game-flow machine the console drives.
type FlowControl interface {
	Fire(t flow.Trigger) bool
	State() flow.State
	Missed() int
	Limit() int
	IncreaseMissLimit(n int)
	ForgiveMisses(n int)
}

// WaveStatus exposes the scheduler state for reporting.
type WaveStatus interface {
	Snapshot() system.WaveRunState
	TotalWaves() int
	Ceiling() int
}

// PoolStatus exposes pool counters for reporting.
type PoolStatus interface {
	ActiveCount() int
	Fallbacks() int
}

// History reads past runs.
type History interface {
	Recent(ctx context.Context, limit int) ([]persist.RunRecord, error)
}

// Deps holds shared dependencies injected into all console handlers.
type Deps struct {
	Name      string // server name shown in the greeting
	TokenHash string // bcrypt hash; empty = no auth
	Flow      FlowControl
	Waves     WaveStatus
	Pool      PoolStatus
	History   History // nil when the database is disabled
	Log       *zap.Logger
}

// maxAuthFailures closes a session after this many bad tokens.
const maxAuthFailures = 3

// RegisterAll registers all console commands into the registry.
func RegisterAll(reg *console.Registry, deps *Deps) {
	anyState := []console.SessionState{console.StateConnected, console.StateOperator}
	operator := []console.SessionState{console.StateOperator}

	reg.OnConnect(func(sess *console.Session) {
		HandleConnect(sess, deps)
	})

	reg.Register("auth", "auth <token>", []console.SessionState{console.StateConnected},
		func(sess *console.Session, args []string) {
			HandleAuth(sess, args, deps)
		},
	)
	reg.Register("help", "help", anyState,
		func(sess *console.Session, _ []string) {
			HandleHelp(sess, reg)
		},
	)
	reg.Register("quit", "quit", anyState,
		func(sess *console.Session, _ []string) {
			HandleQuit(sess, deps)
		},
	)

	// Run control
	reg.Register("start", "start", operator,
		func(sess *console.Session, _ []string) {
			HandleTrigger(sess, flow.Start, deps)
		},
	)
	reg.Register("pause", "pause", operator,
		func(sess *console.Session, _ []string) {
			HandleTrigger(sess, flow.Pause, deps)
		},
	)
	reg.Register("resume", "resume", operator,
		func(sess *console.Session, _ []string) {
			HandleTrigger(sess, flow.Resume, deps)
		},
	)
	reg.Register("stop", "stop", operator,
		func(sess *console.Session, _ []string) {
			HandleTrigger(sess, flow.Abort, deps)
		},
	)

	// Bonuses
	reg.Register("bonus", "bonus <n>", operator,
		func(sess *console.Session, args []string) {
			HandleBonus(sess, args, deps)
		},
	)
	reg.Register("forgive", "forgive <n>", operator,
		func(sess *console.Session, args []string) {
			HandleForgive(sess, args, deps)
		},
	)

	// Reporting
	reg.Register("status", "status", operator,
		func(sess *console.Session, _ []string) {
			HandleStatus(sess, deps)
		},
	)
	reg.Register("history", "history [n]", operator,
		func(sess *console.Session, args []string) {
			HandleHistory(sess, args, deps)
		},
	)
}
