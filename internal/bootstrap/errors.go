package bootstrap

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Stage names the step of a run that failed.
type Stage string

const (
	StageParse   Stage = "parse"
	StageWait    Stage = "wait"
	StageConnect Stage = "connect"
	StageCheck   Stage = "check"
	StageCreate  Stage = "create"
)

// SQLSTATE codes worth recognising in failure reports.
const (
	SQLStateInvalidPassword      = "28P01"
	SQLStateInvalidAuthorization = "28000"
	SQLStateInsufficientPrivs    = "42501"
	SQLStateDuplicateDatabase    = "42P04"
)

var stageContext = map[Stage]string{
	StageParse:   "invalid database URL",
	StageWait:    "database host not reachable",
	StageConnect: "connect to administrative database",
	StageCheck:   "look up database in catalog",
	StageCreate:  "create database",
}

// StageError wraps a failure with the stage it happened in. SQLState is
// set when the server reported the error.
type StageError struct {
	Stage    Stage
	SQLState string
	Err      error
}

func newStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, SQLState: sqlState(err), Err: err}
}

func (e *StageError) Error() string {
	msg := stageContext[e.Stage]
	if msg == "" {
		msg = string(e.Stage)
	}
	if hint := sqlStateHint(e.SQLState); hint != "" {
		return fmt.Sprintf("%s (%s): %v", msg, hint, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf reports the failing stage of err, or "" if err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func sqlStateHint(code string) string {
	switch code {
	case SQLStateInvalidPassword, SQLStateInvalidAuthorization:
		return "authentication failed"
	case SQLStateInsufficientPrivs:
		return "permission denied"
	case SQLStateDuplicateDatabase:
		return "database already exists"
	default:
		return ""
	}
}
