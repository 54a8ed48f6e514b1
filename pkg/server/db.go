package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cardroom/cardroom/pkg/server/internal/ledger"
)

// Ledger records every real-money movement: buy-ins, antes, bets and
// payouts. It is an audit trail, not game-state persistence; rooms are not
// rebuilt from it.
type Ledger interface {
	// GetPlayerBalance returns the player's recorded balance in a room.
	GetPlayerBalance(roomID, player string) (int64, error)
	// UpdatePlayerBalance applies a balance delta and records the
	// transaction.
	UpdatePlayerBalance(roomID, player string, amount int64, txType, description string) error
	// Close closes the underlying store.
	Close() error
}

// NewLedger opens (creating if missing) a SQLite-backed ledger at dbPath.
func NewLedger(dbPath string) (Ledger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %v", err)
	}
	return ledger.NewDB(dbPath)
}
