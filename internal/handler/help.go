package handler

import (
	"strings"

	"github.com/squarefall/spawner/internal/console"
)

// HandleHelp lists the commands available in the session's state.
func HandleHelp(sess *console.Session, reg *console.Registry) {
	sess.Send("commands: " + strings.Join(reg.Usage(sess.State()), ", "))
}
