package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	dataset TEXT NOT NULL,
	start DATETIME NOT NULL,
	end DATETIME NOT NULL,
	start_cash REAL NOT NULL,
	end_cash REAL NOT NULL,
	invested REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS account (
	run_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	type TEXT NOT NULL,
	cash REAL NOT NULL,
	invested REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS lots (
	run_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	size REAL NOT NULL,
	open_price REAL NOT NULL,
	value REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_account_run ON account(run_id, date);
CREATE INDEX IF NOT EXISTS idx_lots_run ON lots(run_id);
`
