// Package runner applies an ordered sequence of catalog statements against a
// live connection. Statements run one at a time, each as its own atomic unit;
// the runner never opens a cross-statement transaction and never rolls back a
// mutation that already succeeded.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/schemapatch/internal/adapter"
	"github.com/sadopc/schemapatch/internal/catalog"
)

var ErrEmptyStatement = errors.New("statement has empty SQL")

// Options control run behavior.
type Options struct {
	// StopOnMutationError aborts the remaining sequence once a mutation
	// fails. Diagnostic failures never abort. Default policy is true.
	StopOnMutationError bool

	// DryRun executes diagnostic statements only; mutations are recorded
	// as skipped so the reporter can echo their SQL.
	DryRun bool
}

// DefaultOptions returns the default run policy.
func DefaultOptions() Options {
	return Options{StopOnMutationError: true}
}

// Result records the outcome of one statement.
type Result struct {
	Statement catalog.Statement
	Succeeded bool
	Skipped   bool // mutation not executed because of DryRun
	Query     *adapter.QueryResult
	Err       error
	Duration  time.Duration
}

// Run executes stmts in order against conn. Per-statement failures are
// recorded in the returned results; the error return is reserved for fatal
// conditions (nil connection, cancelled context) that abort the entire run.
func Run(ctx context.Context, conn adapter.Connection, stmts []catalog.Statement, opts Options, log zerolog.Logger) ([]Result, error) {
	if conn == nil {
		return nil, adapter.ErrNotConnected
	}

	results := make([]Result, 0, len(stmts))

	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if stmt.SQL == "" {
			res := Result{Statement: stmt, Err: ErrEmptyStatement}
			results = append(results, res)
			if abort(stmt, opts) {
				return results, nil
			}
			continue
		}

		if opts.DryRun && stmt.Kind == catalog.Mutation {
			log.Info().Str("statement", stmt.Name).Msg("dry run, skipping mutation")
			results = append(results, Result{Statement: stmt, Skipped: true})
			continue
		}

		log.Debug().
			Str("statement", stmt.Name).
			Str("kind", stmt.Kind.String()).
			Msg("executing")

		start := time.Now()
		qr, err := conn.Execute(ctx, stmt.SQL, stmt.Args...)
		res := Result{
			Statement: stmt,
			Succeeded: err == nil,
			Query:     qr,
			Err:       err,
			Duration:  time.Since(start),
		}
		results = append(results, res)

		if err != nil {
			log.Error().
				Str("statement", stmt.Name).
				Str("kind", stmt.Kind.String()).
				Err(err).
				Msg("statement failed")
			if abort(stmt, opts) {
				return results, nil
			}
			continue
		}

		ev := log.Info().
			Str("statement", stmt.Name).
			Dur("duration", res.Duration)
		if qr != nil {
			ev = ev.Int64("rows", qr.RowCount)
		}
		ev.Msg("statement ok")
	}

	return results, nil
}

// abort reports whether a failed statement should halt the remaining
// sequence. Diagnostic statements reflect inspection, not mutation, so their
// failures always fall through.
func abort(stmt catalog.Statement, opts Options) bool {
	if stmt.Kind != catalog.Mutation {
		return false
	}
	if stmt.ContinueOnError {
		return false
	}
	return opts.StopOnMutationError
}

// AnyMutationFailed reports whether any mutation statement in results failed.
// Used for exit-code computation.
func AnyMutationFailed(results []Result) bool {
	for _, r := range results {
		if r.Statement.Kind == catalog.Mutation && r.Err != nil {
			return true
		}
	}
	return false
}
