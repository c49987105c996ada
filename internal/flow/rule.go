package flow

// RuleContext is what a lose rule sees after each miss.
type RuleContext struct {
	Missed     int
	Limit      int
	Wave       int // 0-based
	TotalWaves int
}

// LoseRule decides whether the run is lost.
type LoseRule interface {
	ShouldLose(ctx RuleContext) bool
}

// DefaultLoseRule loses once the miss counter reaches the limit.
type DefaultLoseRule struct{}

func (DefaultLoseRule) ShouldLose(ctx RuleContext) bool {
	return ctx.Missed >= ctx.Limit
}

// LoseRuleFunc adapts a function to LoseRule.
type LoseRuleFunc func(RuleContext) bool

func (f LoseRuleFunc) ShouldLose(ctx RuleContext) bool { return f(ctx) }
