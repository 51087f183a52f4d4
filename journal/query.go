package journal

import (
	"database/sql"
	"fmt"
)

// GetRun returns a single run summary by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord

	row := j.db.QueryRow(`
		SELECT run_id, created, strategy, dataset, start, end, start_cash, end_cash, invested
		FROM runs
		WHERE run_id = ?`, runID)

	err := row.Scan(
		&rec.RunID,
		&rec.Created,
		&rec.Strategy,
		&rec.Dataset,
		&rec.Start,
		&rec.End,
		&rec.StartCash,
		&rec.EndCash,
		&rec.Invested,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListAccountByRun returns a run's account rows in date order.
func (j *SQLite) ListAccountByRun(runID string) ([]AccountRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, date, type, cash, invested
		FROM account
		WHERE run_id = ?
		ORDER BY date ASC, type DESC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountRecord
	for rows.Next() {
		var rec AccountRecord
		if err := rows.Scan(&rec.RunID, &rec.Date, &rec.Type, &rec.Cash, &rec.Invested); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListLotsByRun returns a run's closed lots.
func (j *SQLite) ListLotsByRun(runID string) ([]LotRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, instrument, size, open_price, value
		FROM lots
		WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LotRecord
	for rows.Next() {
		var rec LotRecord
		if err := rows.Scan(&rec.RunID, &rec.Instrument, &rec.Size, &rec.OpenPrice, &rec.Value); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
