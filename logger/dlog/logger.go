package dlog

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	slogmulti "github.com/samber/slog-multi"
)

// Log is the logger used by every ferrisgo package. It fans out to a
// colorized console handler and, when LOG_DIR is set, to a JSON file under
// that directory. Setting ARCHIVE_CRON additionally schedules an archive job
// that rolls the file logs into dated directories.
var Log *slog.Logger

var archiver *Archiver

func init() {
	Log = newLogger()
}

func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     levelFromEnv(),
	}

	handlers := []slog.Handler{NewPrettyHandler(os.Stdout, opts)}

	if dir := os.Getenv("LOG_DIR"); dir != "" {
		if h := fileHandler(dir, opts); h != nil {
			handlers = append(handlers, h)
		}
	}

	return slog.New(slogmulti.Fanout(handlers...))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fileHandler(dir string, opts *slog.HandlerOptions) slog.Handler {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}
	file, err := os.OpenFile(filepath.Join(dir, "default.json"), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return nil
	}

	if spec := os.Getenv("ARCHIVE_CRON"); spec != "" {
		archiver = &Archiver{Dir: dir}
		c := cron.New()
		if _, err := c.AddFunc(spec, archiver.Process); err == nil {
			c.Start()
		}
	}

	return slog.NewJSONHandler(file, opts)
}
