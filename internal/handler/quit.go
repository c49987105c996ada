package handler

import (
	"github.com/squarefall/spawner/internal/console"
	"go.uber.org/zap"
)

// HandleQuit says goodbye and closes the session once the reply is out.
// The control system forgets the session on the next tick.
func HandleQuit(sess *console.Session, deps *Deps) {
	deps.Log.Info("console quit", zap.Uint64("session", sess.ID))
	sess.Send("bye")
	sess.CloseAfterFlush()
}
