package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/squarefall/spawner/internal/flow"
)

// Engine wraps a single gopher-lua VM for game rule hooks.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory, rules first.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"rules", "."} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a global Lua function with the given name exists.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// ShouldLose calls the Lua should_lose function. ok is false when the
// function is missing, fails, or returns something other than a boolean;
// the caller then falls back to its own rule.
func (e *Engine) ShouldLose(ctx flow.RuleContext) (lose bool, ok bool) {
	fn, isFn := e.vm.GetGlobal("should_lose").(*lua.LFunction)
	if !isFn {
		return false, false
	}

	t := e.vm.NewTable()
	t.RawSetString("missed", lua.LNumber(ctx.Missed))
	t.RawSetString("limit", lua.LNumber(ctx.Limit))
	t.RawSetString("wave", lua.LNumber(ctx.Wave))
	t.RawSetString("total_waves", lua.LNumber(ctx.TotalWaves))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua should_lose error", zap.Error(err))
		return false, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	b, isBool := result.(lua.LBool)
	if !isBool {
		e.log.Error("lua should_lose returned non-boolean", zap.String("type", result.Type().String()))
		return false, false
	}
	return bool(b), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// LoseRule consults the script and falls back when it has no answer.
type LoseRule struct {
	engine   *Engine
	fallback flow.LoseRule
}

// NewLoseRule wraps e. A nil fallback means the default miss-limit rule.
func NewLoseRule(e *Engine, fallback flow.LoseRule) *LoseRule {
	if fallback == nil {
		fallback = flow.DefaultLoseRule{}
	}
	return &LoseRule{engine: e, fallback: fallback}
}

func (r *LoseRule) ShouldLose(ctx flow.RuleContext) bool {
	if lose, ok := r.engine.ShouldLose(ctx); ok {
		return lose
	}
	return r.fallback.ShouldLose(ctx)
}
