package app

import (
	"context"
	"log/slog"
)

// Level grades a Notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is one user-visible outcome of an action.
type Notice struct {
	Level   Level
	Action  string
	Message string
	Err     error
}

// Notifier presents notices to the user. The App never decides how a
// notice is shown; a toast, a dialog or a log line are all valid.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notice) {
	attrs := []slog.Attr{slog.String("action", n.Action)}
	if n.Err != nil {
		attrs = append(attrs, slog.String("error", n.Err.Error()))
	}

	level := slog.LevelInfo
	switch n.Level {
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}

	l.Log.LogAttrs(ctx, level, n.Message, attrs...)
}
