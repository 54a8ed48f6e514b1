package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/decred/slog"
	"github.com/joho/godotenv"

	"github.com/cardroom/cardroom/pkg/game"
	"github.com/cardroom/cardroom/pkg/server"
)

func main() {
	// .env is optional; flags and env vars win over it.
	_ = godotenv.Load()

	var (
		addr        string
		dbPath      string
		clientDir   string
		anteMode    string
		defaultAnte int64
		maxRaise    int
		seed        int64
		debugLevel  string
	)
	flag.StringVar(&addr, "addr", envOr("CARDROOM_ADDR", "127.0.0.1:2000"), "Address to listen on")
	flag.StringVar(&dbPath, "db", os.Getenv("CARDROOM_DB"), "Path to SQLite ledger file (created if missing)")
	flag.StringVar(&clientDir, "clientdir", envOr("CARDROOM_CLIENT_DIR", "client"), "Directory of static client files")
	flag.StringVar(&anteMode, "antemode", envOr("CARDROOM_ANTE_MODE", "player"), "Ante mode: player or dealer")
	flag.Int64Var(&defaultAnte, "ante", envInt("CARDROOM_ANTE", 50), "Default ante in cents")
	flag.IntVar(&maxRaise, "maxraise", int(envInt("CARDROOM_MAX_RAISE", 4)), "Maximum raises per betting round")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for decks (0 = random)")
	flag.StringVar(&debugLevel, "debuglevel", envOr("CARDROOM_DEBUG", "info"), "Logging level: trace, debug, info, warn, error")
	flag.Parse()

	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "cardroom.sqlite")
	}

	backend := slog.NewBackend(os.Stdout)
	log := backend.Logger("SRVR")
	roomLog := backend.Logger("ROOM")
	if level, ok := slog.LevelFromString(debugLevel); ok {
		log.SetLevel(level)
		roomLog.SetLevel(level)
	}

	ledger, err := server.NewLedger(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init ledger: %v\n", err)
		os.Exit(1)
	}
	defer ledger.Close()

	srv := server.NewServer(server.Config{
		Log:         log,
		RoomLog:     roomLog,
		Ledger:      ledger,
		AnteMode:    game.AnteMode(anteMode),
		DefaultAnte: defaultAnte,
		MaxRaise:    maxRaise,
		Seed:        seed,
		ClientDir:   clientDir,
	})

	log.Infof("card room server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		fmt.Fprintf(os.Stderr, "serve error: %v\n", err)
		os.Exit(1)
	}
}

// envOr returns the environment value for key, or def when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt returns the integer environment value for key, or def.
func envInt(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
