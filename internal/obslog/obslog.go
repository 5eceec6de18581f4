// Package obslog builds the zap logger the solver and CLI share,
// mapping spec.md §6's screen verbosity (0-3) onto zap's level scheme
// the way the teacher's own gated cout/fmt.Println calls would have
// mapped onto a leveled logger (SPEC_FULL.md AMBIENT STACK: Logging).
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console-encoded zap.Logger at the level implied by
// screen:
//
//	0: warnings and errors only
//	1: info (iteration summaries, initial solution)
//	2: debug (per-iteration neighborhood/colliding-pair detail)
//	3 and above: the same debug level as 2; no per-agent PP trace is
//	   emitted (cmd/lnsmapf writes the path dump at every level)
func New(screen int) (*zap.Logger, error) {
	level := levelFor(screen)
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "" // the teacher's screen output has no timestamps
	return cfg.Build()
}

func levelFor(screen int) zapcore.Level {
	switch {
	case screen <= 0:
		return zap.WarnLevel
	case screen == 1:
		return zap.InfoLevel
	default:
		return zap.DebugLevel
	}
}
