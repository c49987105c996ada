package console

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotAllowed     = errors.New("command not allowed")
)

// HandlerFunc handles one command line. args excludes the command name.
type HandlerFunc func(sess *Session, args []string)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
	usage         string
}

// Registry maps command names to handlers with state-based access control.
type Registry struct {
	handlers  map[string]*handlerEntry
	onConnect func(*Session)
	log       *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]*handlerEntry),
		log:      log,
	}
}

// Register maps a command to a handler, restricted to the given states.
func (reg *Registry) Register(name, usage string, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[strings.ToLower(name)] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
		usage:         usage,
	}
}

// OnConnect sets the hook run for every new session.
func (reg *Registry) OnConnect(fn func(*Session)) {
	reg.onConnect = fn
}

// Connected runs the connect hook for sess.
func (reg *Registry) Connected(sess *Session) {
	if reg.onConnect != nil {
		reg.onConnect(sess)
	}
}

// Usage lists the usage strings of commands allowed in state, sorted.
func (reg *Registry) Usage(state SessionState) []string {
	out := make([]string, 0, len(reg.handlers))
	for _, e := range reg.handlers {
		if e.allowedStates[state] {
			out = append(out, e.usage)
		}
	}
	sort.Strings(out)
	return out
}

// Dispatch splits line into fields, validates the session state and calls
// the handler. Blank lines are ignored.
func (reg *Registry) Dispatch(sess *Session, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	state := sess.State()
	reg.log.Debug("console command",
		zap.Uint64("session", sess.ID),
		zap.String("command", name),
		zap.Stringer("state", state),
	)

	entry, ok := reg.handlers[name]
	if !ok {
		sess.Send("error unknown command " + name)
		return fmt.Errorf("%w %q", ErrUnknownCommand, name)
	}
	if !entry.allowedStates[state] {
		sess.Send("error not allowed: " + name)
		return fmt.Errorf("%w: %s in state %s", ErrNotAllowed, name, state)
	}
	return reg.safeCall(entry.fn, sess, fields[1:], name)
}

// safeCall executes a handler with panic recovery so a bad command cannot
// take down the game loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess *Session, args []string, name string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("console handler panic recovered",
				zap.String("command", name),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", name, rec)
		}
	}()
	fn(sess, args)
	return nil
}
