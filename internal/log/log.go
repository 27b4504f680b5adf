package log

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

var setupOnce sync.Once

// Setup installs the global slog handler. verbose lowers the minimum level
// to DEBUG. Calling Setup more than once has no effect.
func Setup(verbose bool) {
	setupOnce.Do(func() {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: time.RFC1123Z,
			}),
		))
	})
}

func Debug(msg string, kv ...any) {
	slog.Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	slog.Info(msg, kv...)
}

// Error logs msg with err prepended to the key-value list.
func Error(msg string, err error, kv ...any) {
	slog.Error(msg, append([]any{"err", err}, kv...)...)
}
