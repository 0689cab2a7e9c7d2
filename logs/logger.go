package logs

import (
	"io"
	"log/slog"
)

// Logger 提供统一的结构化日志入口，默认使用 slog。
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DefaultLogger 可在不同模块注入，便于替换。
var DefaultLogger Logger = slog.Default()

// NewText 返回写到 w 的文本格式日志器，debug 为真时输出 Debug 级别。
func NewText(w io.Writer, debug bool) Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
