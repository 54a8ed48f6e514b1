// Package ledger is the SQLite implementation of the server's money
// movement ledger.
package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection.
type DB struct {
	*sql.DB
}

// NewDB opens the ledger database at dbPath, creating the schema if needed.
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			room TEXT NOT NULL,
			name TEXT NOT NULL,
			balance INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (room, name)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room TEXT NOT NULL,
			player TEXT NOT NULL,
			amount INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// GetPlayerBalance returns the recorded balance for player in room.
func (db *DB) GetPlayerBalance(roomID, player string) (int64, error) {
	var balance int64
	err := db.QueryRow("SELECT balance FROM players WHERE room = ? AND name = ?",
		roomID, player).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("player not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get player balance: %v", err)
	}
	return balance, nil
}

// UpdatePlayerBalance applies a balance delta and records the transaction
// atomically.
func (db *DB) UpdatePlayerBalance(roomID, player string, amount int64, txType, description string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO players (room, name, balance)
		VALUES (?, ?, ?)
		ON CONFLICT(room, name) DO UPDATE SET balance = balance + ?
	`, roomID, player, amount, amount)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO transactions (room, player, amount, type, description)
		VALUES (?, ?, ?, ?, ?)
	`, roomID, player, amount, txType, description)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
