package handler

import (
	"fmt"
	"strconv"

	"github.com/squarefall/spawner/internal/console"
	"github.com/squarefall/spawner/internal/flow"
	"go.uber.org/zap"
)

// HandleTrigger fires a flow trigger on behalf of the operator.
func HandleTrigger(sess *console.Session, t flow.Trigger, deps *Deps) {
	from := deps.Flow.State()
	if !deps.Flow.Fire(t) {
		sess.Send(fmt.Sprintf("error cannot %s while %s", t, from))
		return
	}
	deps.Log.Info("console run control",
		zap.Uint64("session", sess.ID),
		zap.Stringer("trigger", t),
		zap.Stringer("state", deps.Flow.State()))
	sess.Send("ok " + deps.Flow.State().String())
}

// HandleBonus raises the miss limit of the current run.
func HandleBonus(sess *console.Session, args []string, deps *Deps) {
	n, ok := parseCount(sess, "bonus", args)
	if !ok {
		return
	}
	deps.Flow.IncreaseMissLimit(n)
	sess.Send(fmt.Sprintf("ok limit=%d", deps.Flow.Limit()))
}

// HandleForgive lowers the miss counter of the current run.
func HandleForgive(sess *console.Session, args []string, deps *Deps) {
	n, ok := parseCount(sess, "forgive", args)
	if !ok {
		return
	}
	deps.Flow.ForgiveMisses(n)
	sess.Send(fmt.Sprintf("ok missed=%d", deps.Flow.Missed()))
}

func parseCount(sess *console.Session, cmd string, args []string) (int, bool) {
	if len(args) != 1 {
		sess.Send("error usage: " + cmd + " <n>")
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		sess.Send("error " + cmd + " needs a positive integer")
		return 0, false
	}
	return n, true
}
