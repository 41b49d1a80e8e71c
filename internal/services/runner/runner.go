// Package runner executes plain .sql scripts in filename order against the
// configured database.
package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/sqlerr"
	"github.com/rs/zerolog"
)

// TxMode selects the transaction boundary of a run
type TxMode int

const (
	// TxNone executes statements directly; a failure keeps earlier work
	TxNone TxMode = iota
	// TxPerFile wraps each script in its own transaction
	TxPerFile
	// TxAll wraps the whole run in one transaction
	TxAll
)

// ParseTxMode maps the --tx flag value to a TxMode
func ParseTxMode(s string) (TxMode, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return TxNone, nil
	case "file":
		return TxPerFile, nil
	case "all":
		return TxAll, nil
	default:
		return 0, fmt.Errorf("invalid transaction mode %q (must be none, file or all)", s)
	}
}

func (m TxMode) String() string {
	switch m {
	case TxPerFile:
		return "file"
	case TxAll:
		return "all"
	default:
		return "none"
	}
}

// ErrIgnoreNeedsSplit is returned when IgnoreExisting is combined with
// whole-file execution. A driver stops a multi-statement Exec at the first
// error, so the statements after an ignored one would silently never run.
var ErrIgnoreNeedsSplit = errors.New("ignoring existing objects requires statement splitting")

// Options controls how scripts are executed
type Options struct {
	Mode TxMode
	// Split executes statement by statement instead of one multi-statement Exec
	Split bool
	// IgnoreExisting treats duplicate column/table/object errors as applied
	IgnoreExisting bool
	// Track records applied scripts in JournalTable and skips them next time
	Track bool
	// DryRun writes the statements to Out without executing anything
	DryRun bool
	Out    io.Writer
	// From skips scripts whose name sorts before it
	From string
}

// Validate reports option combinations the runner cannot honour
func (o Options) Validate() error {
	if o.IgnoreExisting && !o.Split {
		return ErrIgnoreNeedsSplit
	}
	return nil
}

// Result is the outcome of one script
type Result struct {
	Name       string
	Statements int
	Ignored    int
	Skipped    bool
	Duration   time.Duration
	Err        error
}

// Report collects the results of a run in execution order
type Report struct {
	Results []Result
}

// Applied returns the number of scripts that ran to completion
func (r *Report) Applied() int {
	n := 0
	for _, res := range r.Results {
		if !res.Skipped && res.Err == nil {
			n++
		}
	}
	return n
}

// Skipped returns the number of scripts skipped as already applied
func (r *Report) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Skipped {
			n++
		}
	}
	return n
}

// Failed returns the failed result, nil when the run succeeded
func (r *Report) Failed() *Result {
	for i := range r.Results {
		if r.Results[i].Err != nil {
			return &r.Results[i]
		}
	}
	return nil
}

// Runner executes scripts sequentially on a single database
type Runner struct {
	db      *sql.DB
	dialect database.Dialect
	log     zerolog.Logger
	opts    Options
	journal journal
}

// New creates a runner
func New(db *sql.DB, dialect database.Dialect, log zerolog.Logger, opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Runner{db: db, dialect: dialect, log: log, opts: opts, journal: journal{dialect: dialect}}
}

// Run executes scripts in order and stops at the first failure. The report
// is returned in every case.
func (r *Runner) Run(ctx context.Context, scripts []Script) (*Report, error) {
	report := &Report{}
	if err := r.opts.Validate(); err != nil {
		return report, err
	}
	scripts = After(scripts, r.opts.From)

	if r.opts.DryRun {
		for _, s := range scripts {
			stmts := r.statements(s)
			for _, stmt := range stmts {
				fmt.Fprintf(r.opts.Out, "-- %s\n%s;\n\n", s.Name, strings.TrimRight(stmt, "; \t\r\n"))
			}
			report.Results = append(report.Results, Result{Name: s.Name, Statements: len(stmts)})
		}
		return report, nil
	}

	if r.opts.Mode != TxNone && r.dialect == database.MySQL {
		r.log.Warn().Msg("mysql commits DDL implicitly; transactional mode only protects data statements and ignored errors are not isolated by savepoints")
	}

	if r.opts.Track {
		if err := r.journal.ensure(ctx, r.db); err != nil {
			return report, err
		}
	}

	var q execer = r.db
	var runTx *sql.Tx
	if r.opts.Mode == TxAll {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return report, fmt.Errorf("failed to begin transaction: %w", err)
		}
		runTx = tx
		q = tx
	}

	for _, s := range scripts {
		res := r.runScript(ctx, q, s)
		report.Results = append(report.Results, res)

		if res.Err != nil {
			r.log.Error().Err(res.Err).Str("script", s.Name).Msg("script failed")
			if runTx != nil {
				if err := runTx.Rollback(); err != nil {
					r.log.Error().Err(err).Msg("rollback failed")
				}
				r.log.Warn().Int("scripts", len(report.Results)).Msg("rolled back the whole run")
			}
			return report, fmt.Errorf("script %s: %w", s.Name, res.Err)
		}

		if res.Skipped {
			r.log.Debug().Str("script", s.Name).Msg("already applied, skipping")
			continue
		}
		r.log.Info().
			Str("script", s.Name).
			Int("statements", res.Statements).
			Int("ignored", res.Ignored).
			Dur("took", res.Duration).
			Msg("applied")
	}

	if runTx != nil {
		if err := runTx.Commit(); err != nil {
			return report, fmt.Errorf("failed to commit run: %w", err)
		}
	}
	return report, nil
}

func (r *Runner) statements(s Script) []string {
	if r.opts.Split {
		return SplitStatements(s.SQL, r.dialect)
	}
	if body := strings.TrimSpace(s.SQL); body != "" {
		return []string{body}
	}
	return nil
}

func (r *Runner) runScript(ctx context.Context, q execer, s Script) Result {
	res := Result{Name: s.Name}
	start := time.Now()

	if r.opts.Track {
		sum, found, err := r.journal.checksum(ctx, q, s.Name)
		if err != nil {
			res.Err = err
			return res
		}
		if found {
			if sum != s.Checksum {
				r.log.Warn().Str("script", s.Name).Msg("script changed after it was applied; not re-running")
			}
			res.Skipped = true
			return res
		}
	}

	var fileTx *sql.Tx
	if r.opts.Mode == TxPerFile {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			res.Err = fmt.Errorf("failed to begin transaction: %w", err)
			return res
		}
		fileTx = tx
		q = tx
	}
	inTx := r.opts.Mode != TxNone

	fail := func(err error) Result {
		if fileTx != nil {
			if rbErr := fileTx.Rollback(); rbErr != nil {
				r.log.Error().Err(rbErr).Str("script", s.Name).Msg("rollback failed")
			}
		}
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	for i, stmt := range r.statements(s) {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		ignored, err := r.exec(ctx, q, stmt, inTx)
		if err != nil {
			return fail(fmt.Errorf("statement %d: %w", i+1, err))
		}
		res.Statements++
		if ignored {
			res.Ignored++
		}
	}

	res.Duration = time.Since(start)

	if r.opts.Track {
		if err := r.journal.record(ctx, q, s, res.Duration); err != nil {
			return fail(err)
		}
	}

	if fileTx != nil {
		if err := fileTx.Commit(); err != nil {
			res.Err = fmt.Errorf("failed to commit: %w", err)
			return res
		}
	}
	return res
}

// savepoint guards a statement whose failure may be ignored inside a
// transaction; postgres aborts the whole transaction on any error otherwise
const savepoint = "ops_runner_stmt"

// exec runs one statement, reporting ignored=true for tolerated errors.
// MySQL is never guarded: DDL commits implicitly and drops every savepoint.
func (r *Runner) exec(ctx context.Context, q execer, stmt string, inTx bool) (bool, error) {
	guard := inTx && r.opts.IgnoreExisting && r.dialect != database.MySQL
	if guard {
		if _, err := q.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
			return false, fmt.Errorf("failed to create savepoint: %w", err)
		}
	}

	_, err := q.ExecContext(ctx, stmt)
	if err == nil {
		if guard {
			if _, err := q.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
				return false, fmt.Errorf("failed to release savepoint: %w", err)
			}
		}
		return false, nil
	}

	if !r.opts.IgnoreExisting || !sqlerr.IsAlreadyExists(err) {
		return false, err
	}

	if guard {
		if _, rbErr := q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
			return false, fmt.Errorf("failed to roll back to savepoint: %w", rbErr)
		}
		if _, relErr := q.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); relErr != nil {
			return false, fmt.Errorf("failed to release savepoint: %w", relErr)
		}
	}
	r.log.Warn().Str("kind", sqlerr.Classify(err).String()).Err(err).Msg("ignoring existing object")
	return true, nil
}
