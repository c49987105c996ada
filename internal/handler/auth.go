package handler

import (
	"errors"
	"fmt"

	"github.com/squarefall/spawner/internal/console"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// HandleConnect greets a new session. Without a configured token every
// session is an operator from the start.
func HandleConnect(sess *console.Session, deps *Deps) {
	if deps.TokenHash == "" {
		sess.SetState(console.StateOperator)
		sess.Send(fmt.Sprintf("squarefall %s console, operator", deps.Name))
		return
	}
	sess.Send(fmt.Sprintf("squarefall %s console, auth required", deps.Name))
}

// HandleAuth checks the token against the configured bcrypt hash.
func HandleAuth(sess *console.Session, args []string, deps *Deps) {
	if len(args) != 1 {
		sess.Send("error usage: auth <token>")
		return
	}
	err := bcrypt.CompareHashAndPassword([]byte(deps.TokenHash), []byte(args[0]))
	if err == nil {
		sess.SetState(console.StateOperator)
		sess.Send("ok operator")
		deps.Log.Info("console operator authenticated", zap.Uint64("session", sess.ID), zap.String("ip", sess.IP))
		return
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		deps.Log.Error("console token hash unusable", zap.Error(err))
	}

	sess.AuthFailures++
	deps.Log.Warn("console auth failed",
		zap.Uint64("session", sess.ID),
		zap.String("ip", sess.IP),
		zap.Int("failures", sess.AuthFailures))
	if sess.AuthFailures >= maxAuthFailures {
		sess.Send("error too many failures")
		sess.CloseAfterFlush()
		return
	}
	sess.Send("error bad token")
}
