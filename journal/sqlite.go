package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, dataset, start, end, start_cash, end_cash, invested)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Dataset,
		r.Start, r.End, r.StartCash, r.EndCash, r.Invested,
	)
	return err
}

func (j *SQLite) RecordAccount(a AccountRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO account
		(run_id, date, type, cash, invested)
		VALUES (?, ?, ?, ?, ?)`,
		a.RunID, a.Date, a.Type, a.Cash, a.Invested,
	)
	return err
}

func (j *SQLite) RecordLot(l LotRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO lots
		(run_id, instrument, size, open_price, value)
		VALUES (?, ?, ?, ?, ?)`,
		l.RunID, l.Instrument, l.Size, l.OpenPrice, l.Value,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
