// Package journal records every fill in a local SQLite database for
// post-session analysis. The journal is an audit trail, not an input to
// trading decisions, so write failures are reported but never fatal.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sniperbot/internal/execution"
)

// Journal is a single-writer SQLite trade log.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database with WAL mode and the trades
// schema.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id  TEXT    NOT NULL,
			symbol    TEXT    NOT NULL,
			side      TEXT    NOT NULL,
			qty       TEXT    NOT NULL,
			price     TEXT    NOT NULL,
			reason    TEXT,
			ts        INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_trades_symbol_ts ON trades (symbol, ts);
	`)
	return err
}

// Record appends a fill to the journal. Qty and price are stored as decimal
// strings to avoid float drift in the audit trail.
func (j *Journal) Record(symbol string, fill execution.Fill, reason string) error {
	_, err := j.db.Exec(`
		INSERT INTO trades (order_id, symbol, side, qty, price, reason, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, fill.OrderID, symbol, string(fill.Side), fill.Qty.String(), fill.Price.String(),
		reason, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// Trade is a journal row read back for reporting.
type Trade struct {
	OrderID string
	Symbol  string
	Side    string
	Qty     string
	Price   string
	Reason  string
	TS      int64
}

// Recent returns the newest trades for a symbol, most recent first.
func (j *Journal) Recent(symbol string, limit int) ([]Trade, error) {
	rows, err := j.db.Query(`
		SELECT order_id, symbol, side, qty, price, reason, ts
		FROM trades WHERE symbol = ? ORDER BY ts DESC LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.OrderID, &t.Symbol, &t.Side, &t.Qty, &t.Price, &t.Reason, &t.TS); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close releases the database handle.
func (j *Journal) Close() error { return j.db.Close() }
