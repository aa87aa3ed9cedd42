package bootstrap

import (
	"context"
	"fmt"
	"io"
)

// Outcome is the result of a successful ensure run.
type Outcome int

const (
	OutcomeExisted Outcome = iota + 1
	OutcomeCreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExisted:
		return "existed"
	case OutcomeCreated:
		return "created"
	default:
		return "unknown"
	}
}

// Catalog is a connection to the server's administrative database.
type Catalog interface {
	DatabaseExists(ctx context.Context, name string) (bool, error)
	CreateDatabase(ctx context.Context, name string) error
	Close(ctx context.Context) error
}

// Opener connects to the administrative database of the server d points at.
type Opener func(ctx context.Context, d Descriptor) (Catalog, error)

// Ensurer creates the target database when the catalog does not list it.
type Ensurer struct {
	Open   Opener
	Out    io.Writer
	Logger *Logger
}

// Ensure checks the catalog for d.Database and creates it if absent.
// Progress messages are written to Out.
func (e *Ensurer) Ensure(ctx context.Context, d Descriptor) (Outcome, error) {
	cat, err := e.Open(ctx, d)
	if err != nil {
		return 0, newStageError(StageConnect, err)
	}
	e.Logger.Info("admin_connected", map[string]any{"addr": d.Address()})

	outcome, err := e.ensure(ctx, cat, d.Database)
	if cerr := cat.Close(ctx); cerr != nil {
		e.Logger.Warn("admin_close_failed", nil, cerr)
	}
	return outcome, err
}

func (e *Ensurer) ensure(ctx context.Context, cat Catalog, name string) (Outcome, error) {
	exists, err := cat.DatabaseExists(ctx, name)
	if err != nil {
		return 0, newStageError(StageCheck, err)
	}

	if exists {
		fmt.Fprintf(e.Out, "Database '%s' already exists.\n", name)
		return OutcomeExisted, nil
	}

	fmt.Fprintf(e.Out, "Database '%s' not found. Creating...\n", name)
	if err := cat.CreateDatabase(ctx, name); err != nil {
		return 0, newStageError(StageCreate, err)
	}
	fmt.Fprintln(e.Out, "Created database.")
	e.Logger.Info("database_created", map[string]any{"database": name})

	return OutcomeCreated, nil
}
