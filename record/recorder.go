// Package record stores verification outcomes in a SQLite database.
package record

import (
	"database/sql"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/coreverif/tb"
)

type comparisonRow struct {
	index       int
	command     uint32
	instruction string
	passed      bool
	diffs       string
	err         string
}

// SQLiteRecorder is a hook that records every scoreboard comparison and
// every test result. Comparisons are buffered until their test finishes,
// when the run ID is known.
type SQLiteRecorder struct {
	*sql.DB

	path        string
	pending     []comparisonRow
	runs        int
	comparisons int
}

// NewSQLiteRecorder opens (or creates) the database at path. An empty path
// creates a uniquely named database in the working directory. Pending rows
// are flushed when the program exits through atexit.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if path == "" {
		path = xid.New().String() + ".sqlite3"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open record database")
	}

	r := &SQLiteRecorder{DB: db, path: path}
	if err := r.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

// Path returns the database file.
func (r *SQLiteRecorder) Path() string {
	return r.path
}

// Runs returns the number of test results written.
func (r *SQLiteRecorder) Runs() int {
	return r.runs
}

// Comparisons returns the number of comparisons written.
func (r *SQLiteRecorder) Comparisons() int {
	return r.comparisons
}

func (r *SQLiteRecorder) createTables() error {
	stmts := []string{
		`create table if not exists runs (
			run_id     text primary key,
			test       text not null,
			seed       integer not null,
			cycles     integer not null,
			compared   integer not null,
			mismatches integer not null,
			passed     integer not null,
			error      text
		)`,
		`create table if not exists comparisons (
			run_id      text not null,
			idx         integer not null,
			command     integer not null,
			instruction text not null,
			passed      integer not null,
			diffs       text,
			error       text
		)`,
	}

	for _, s := range stmts {
		if _, err := r.Exec(s); err != nil {
			return errors.Wrap(err, "failed to create table")
		}
	}

	return nil
}

// Func handles the runner's and scoreboard's hooks.
func (r *SQLiteRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case tb.HookPosTestStarted:
		r.pending = r.pending[:0]
	case tb.HookPosCompared:
		r.pending = append(r.pending, toRow(ctx.Item.(tb.Comparison)))
	case tb.HookPosTestFinished:
		if err := r.writeResult(ctx.Item.(tb.Result)); err != nil {
			panic(err)
		}
	}
}

func toRow(c tb.Comparison) comparisonRow {
	row := comparisonRow{
		index:       c.Index,
		command:     uint32(c.Command),
		instruction: c.Instruction.String(),
		passed:      c.Passed(),
	}

	diffs := make([]string, 0, len(c.Diffs))
	for _, d := range c.Diffs {
		diffs = append(diffs, d.String())
	}
	row.diffs = strings.Join(diffs, "; ")

	if c.Err != nil {
		row.err = c.Err.Error()
	}

	return row
}

func (r *SQLiteRecorder) writeResult(res tb.Result) error {
	tx, err := r.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}

	_, err = tx.Exec(
		`insert into runs values (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Test, int64(res.Seed), int64(res.Cycles),
		res.Report.Compared, res.Report.Mismatches, res.Passed(), errText)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "failed to insert run")
	}

	stmt, err := tx.Prepare(
		`insert into comparisons values (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "failed to prepare statement")
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range r.pending {
		_, err := stmt.Exec(res.RunID, c.index, c.command, c.instruction,
			c.passed, c.diffs, c.err)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "failed to insert comparison")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}

	r.runs++
	r.comparisons += len(r.pending)
	r.pending = r.pending[:0]

	return nil
}
