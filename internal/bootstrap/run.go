package bootstrap

import (
	"context"
	"io"
)

// Runner performs one parse, wait, ensure pass.
type Runner struct {
	Logger *Logger

	// Wait blocks until host:port is reachable.
	Wait func(ctx context.Context, host string, port int) error
	// Ensurer checks and creates the database.
	Ensurer *Ensurer
}

// NewRunner wires a Runner against a real PostgreSQL server.
func NewRunner(cfg Config, out io.Writer, logger *Logger) *Runner {
	return &Runner{
		Logger: logger,
		Wait:   NewWaiter(cfg.WaitTimeout, logger).Wait,
		Ensurer: &Ensurer{
			Open:   PostgresOpener(cfg.AdminDatabase, cfg.ConnectTimeout),
			Out:    out,
			Logger: logger,
		},
	}
}

// EnsureDatabase makes sure the database named by rawURL exists. Any
// failure is returned as a *StageError.
func (r *Runner) EnsureDatabase(ctx context.Context, rawURL string) (Outcome, error) {
	d, err := ParseURL(rawURL)
	if err != nil {
		return 0, newStageError(StageParse, err)
	}
	r.Logger.Info("ensure_start", map[string]any{"url": d.Redacted()})

	if err := r.Wait(ctx, d.Host, d.Port); err != nil {
		return 0, newStageError(StageWait, err)
	}

	outcome, err := r.Ensurer.Ensure(ctx, d)
	if err != nil {
		r.Logger.Error("ensure_failed", map[string]any{"database": d.Database, "stage": string(StageOf(err))}, err)
		return 0, err
	}

	r.Logger.Info("ensure_done", map[string]any{"database": d.Database, "outcome": outcome.String()})
	return outcome, nil
}
