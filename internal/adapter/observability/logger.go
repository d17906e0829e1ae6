package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/fairyhunter13/techtrends/internal/config"
)

// TimestampLayout renders log timestamps as day/month/year, wall clock.
const TimestampLayout = "02/01/2006, 15:04:05"

// SetupLogger configures a JSON slog logger on stdout with environment fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	return NewLogger(os.Stdout, cfg)
}

// NewLogger builds the application logger writing to w.
func NewLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				return slog.String(slog.TimeKey, a.Value.Time().Format(TimestampLayout))
			}
			return a
		},
	}
	// In dev, show debug level; in prod, default to info
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, opts)
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}
