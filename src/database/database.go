package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/cryptofolio/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	migrateDatabase()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS normalized_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		buy_quantity TEXT,
		buy_asset TEXT,
		sell_quantity TEXT,
		sell_asset TEXT,
		fee_quantity TEXT,
		fee_asset TEXT,
		wallet TEXT NOT NULL,
		hash_id TEXT NOT NULL,
		UNIQUE(hash_id)
	);
	`

	if _, err = DB.Exec(createTableStatement); err != nil {
		logger.L.Error("failed to create tables", "error", err)
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	logger.L.Info("Database tables ensured/created.")
}

func migrateDatabase() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='normalized_transactions'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.L.Info("normalized_transactions table does not exist, no migration needed as table will be created.")
			return
		}
		logger.L.Error("Error checking for normalized_transactions table", "error", err)
		return
	}

	rows, err := DB.Query("PRAGMA table_info(normalized_transactions)")
	if err != nil {
		logger.L.Error("Error querying table schema for normalized_transactions", "error", err)
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			logger.L.Error("Error scanning column info", "error", err)
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		logger.L.Error("Error iterating over column info", "error", err)
		return
	}

	// Early schemas had no source column; wallet doubled as the source label.
	if _, ok := columnExists["source"]; !ok {
		if _, err := DB.Exec("ALTER TABLE normalized_transactions ADD COLUMN source TEXT NOT NULL DEFAULT 'kraken'"); err != nil {
			logger.L.Error("Error adding 'source' column to 'normalized_transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'source' column to 'normalized_transactions' table")
		}
	}
}
