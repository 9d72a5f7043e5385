package umbrella

import (
	"log/slog"
	"time"
)

// FrameStats holds per-frame timing and counters of Engine.Update.
type FrameStats struct {
	ScriptTime time.Duration
	MoveTime   time.Duration
	FrameTime  time.Duration
	Scripts    int
	Contacts   int
	DrawCalls  int
}

// log writes the stats at debug level.
func (s FrameStats) log(l *slog.Logger) {
	l.Debug("frame",
		"script", s.ScriptTime,
		"move", s.MoveTime,
		"total", s.FrameTime,
		"scripts", s.Scripts,
		"contacts", s.Contacts,
		"draw_calls", s.DrawCalls)
}

// debugMaxMissingColors is the number of distinct unmatched colors in one
// texture above which a load is reported as likely using the wrong palette.
const debugMaxMissingColors = 8

// debugCheckTexture warns when a texture matched few of its colors.
func debugCheckTexture(l *slog.Logger, t *Texture) {
	if len(t.Missing) > debugMaxMissingColors {
		l.Warn("texture has many unmatched colors, check its palette",
			"texture", t.Path, "colors", len(t.Missing), "threshold", debugMaxMissingColors)
	}
}
