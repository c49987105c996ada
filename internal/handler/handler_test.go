package handler

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/squarefall/spawner/internal/console"
	"github.com/squarefall/spawner/internal/core/clock"
	"github.com/squarefall/spawner/internal/core/event"
	"github.com/squarefall/spawner/internal/flow"
	"github.com/squarefall/spawner/internal/persist"
	"github.com/squarefall/spawner/internal/system"
)

type fakeWaves struct{ snap system.WaveRunState }

func (f *fakeWaves) Snapshot() system.WaveRunState { return f.snap }
func (f *fakeWaves) TotalWaves() int               { return 5 }
func (f *fakeWaves) Ceiling() int                  { return 15 }

type fakePool struct{}

func (fakePool) ActiveCount() int { return 7 }
func (fakePool) Fallbacks() int   { return 1 }

type fakeHistory struct {
	runs  []persist.RunRecord
	err   error
	asked int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]persist.RunRecord, error) {
	f.asked = limit
	return f.runs, f.err
}

type env struct {
	reg  *console.Registry
	deps *Deps
	flow *flow.Machine
	bus  *event.Bus
}

func newEnv(t *testing.T, token string) *env {
	t.Helper()
	log := zaptest.NewLogger(t)
	bus := event.NewBus()
	m := flow.New(bus, 5, clock.NewManual(time.Unix(0, 0)), nil, log)
	t.Cleanup(m.Close)
	deps := &Deps{
		Name:  "test",
		Flow:  m,
		Waves: &fakeWaves{snap: system.WaveRunState{State: system.WaveRunning, CurrentWave: 1, Multiplier: 1.3, Progress: 0.5, Spawned: 20, Skipped: 3}},
		Pool:  fakePool{},
		Log:   log,
	}
	if token != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		deps.TokenHash = string(hash)
	}
	reg := console.NewRegistry(log)
	RegisterAll(reg, deps)
	return &env{reg: reg, deps: deps, flow: m, bus: bus}
}

func newSession(t *testing.T) *console.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { server.Close(); client.Close() })
	codec, _ := console.NewCodec("utf-8")
	return console.NewSession(server, 1, 4, 64, 0, codec, zap.NewNop())
}

// replies flushes the session and returns every line it produced.
func replies(s *console.Session) []string {
	s.FlushOutput()
	var out []string
	for len(s.OutQueue) > 0 {
		data := <-s.OutQueue
		if data == nil {
			out = append(out, "<close>")
			continue
		}
		out = append(out, string(data))
	}
	return out
}

func (e *env) run(s *console.Session, line string) []string {
	e.reg.Dispatch(s, line)
	return replies(s)
}

func TestConnectWithoutTokenIsOperator(t *testing.T) {
	e := newEnv(t, "")
	s := newSession(t)
	e.reg.Connected(s)
	if s.State() != console.StateOperator {
		t.Errorf("state = %s", s.State())
	}
	if got := replies(s); len(got) != 1 || got[0] != "squarefall test console, operator" {
		t.Errorf("greeting = %v", got)
	}
}

func TestAuth(t *testing.T) {
	e := newEnv(t, "hunter2")
	s := newSession(t)
	e.reg.Connected(s)
	replies(s)

	if got := e.run(s, "start"); got[0] != "error not allowed: start" {
		t.Errorf("start before auth = %v", got)
	}
	if got := e.run(s, "auth wrong"); got[0] != "error bad token" {
		t.Errorf("bad token = %v", got)
	}
	if got := e.run(s, "auth hunter2"); got[0] != "ok operator" {
		t.Errorf("good token = %v", got)
	}
	if s.State() != console.StateOperator {
		t.Errorf("state = %s", s.State())
	}
	if got := e.run(s, "auth hunter2"); !strings.HasPrefix(got[0], "error not allowed") {
		t.Errorf("auth as operator = %v", got)
	}
}

func TestAuthLockout(t *testing.T) {
	e := newEnv(t, "hunter2")
	s := newSession(t)
	e.run(s, "auth a")
	e.run(s, "auth b")
	got := e.run(s, "auth c")
	if len(got) != 2 || got[0] != "error too many failures" || got[1] != "<close>" {
		t.Errorf("lockout replies = %v", got)
	}
}

func TestRunControl(t *testing.T) {
	e := newEnv(t, "")
	s := newSession(t)
	e.reg.Connected(s)
	replies(s)

	tests := []struct {
		line string
		want string
	}{
		{"pause", "error cannot pause while menu"},
		{"start", "ok playing"},
		{"pause", "ok paused"},
		{"pause", "error cannot pause while paused"},
		{"resume", "ok playing"},
		{"stop", "ok menu"},
	}
	for _, tt := range tests {
		got := e.run(s, tt.line)
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("%s = %v, want %q", tt.line, got, tt.want)
		}
	}
}

func TestBonusAndForgive(t *testing.T) {
	e := newEnv(t, "")
	s := newSession(t)
	e.reg.Connected(s)
	replies(s)
	e.run(s, "start")

	if got := e.run(s, "bonus 3"); got[0] != "ok limit=8" {
		t.Errorf("bonus = %v", got)
	}
	if got := e.run(s, "bonus x"); got[0] != "error bonus needs a positive integer" {
		t.Errorf("bad bonus = %v", got)
	}
	if got := e.run(s, "forgive"); got[0] != "error usage: forgive <n>" {
		t.Errorf("forgive without arg = %v", got)
	}
	if got := e.run(s, "forgive 2"); got[0] != "ok missed=0" {
		t.Errorf("forgive = %v", got)
	}
}

func TestStatus(t *testing.T) {
	e := newEnv(t, "")
	s := newSession(t)
	e.reg.Connected(s)
	replies(s)
	got := e.run(s, "status")
	want := "status flow=menu waves=running wave=2/5 progress=0.50 multiplier=1.30 active=7/15 missed=0/5 spawned=20 skipped=3 fallbacks=1"
	if len(got) != 1 || got[0] != want {
		t.Errorf("status = %v\nwant %q", got, want)
	}
}

func TestHistory(t *testing.T) {
	e := newEnv(t, "")
	s := newSession(t)
	e.reg.Connected(s)
	replies(s)

	if got := e.run(s, "history"); got[0] != "error history disabled" {
		t.Errorf("history without db = %v", got)
	}

	start := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	h := &fakeHistory{runs: []persist.RunRecord{{ID: 9, Result: "win", WavesCleared: 5, TotalWaves: 5, Missed: 1, Spawned: 70,
		StartedAt: start, EndedAt: start.Add(150 * time.Second)}}}
	e.deps.History = h
	got := e.run(s, "history 500")
	if h.asked != maxHistory {
		t.Errorf("limit = %d, want %d", h.asked, maxHistory)
	}
	if len(got) != 2 || got[0] != "run 9 2026-02-03T04:07:36Z result=win waves=5/5 missed=1 spawned=70 duration=2m30s" || got[1] != "ok 1 runs" {
		t.Errorf("history = %v", got)
	}

	h.err = errors.New("db down")
	if got := e.run(s, "history"); got[0] != "error history unavailable" {
		t.Errorf("history on error = %v", got)
	}
}

func TestHelpAndQuit(t *testing.T) {
	e := newEnv(t, "token")
	s := newSession(t)
	got := e.run(s, "help")
	if len(got) != 1 || got[0] != "commands: auth <token>, help, quit" {
		t.Errorf("help = %v", got)
	}
	got = e.run(s, "quit")
	if len(got) != 2 || got[0] != "bye" || got[1] != "<close>" {
		t.Errorf("quit = %v", got)
	}
}
