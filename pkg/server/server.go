package server

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/cardroom/cardroom/pkg/game"
)

// Config holds configuration for a new card-room server.
type Config struct {
	Log     slog.Logger
	RoomLog slog.Logger
	Ledger  Ledger

	AnteMode    game.AnteMode
	DefaultAnte int64
	MaxRaise    int

	// Seed makes deck shuffles deterministic when non-zero. Test hook.
	Seed int64

	// ClientDir, when set, is served as static files at the root path.
	ClientDir string
}

// Server accepts websocket clients, routes their commands to rooms, and
// fans notifications back out. It implements game.Notifier.
//
// Command handling is serialized per room by the room's own lock; the
// server-level lock only guards the session tables.
type Server struct {
	log    slog.Logger
	cfg    Config
	rooms  *RoomStore
	ledger Ledger

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session            // connID -> session
	members  map[string]map[string]*session // roomID -> connID -> session
}

// NewServer creates a server with an explicit room store built from cfg.
func NewServer(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	if cfg.RoomLog == nil {
		cfg.RoomLog = cfg.Log
	}

	s := &Server{
		log:    cfg.Log,
		cfg:    cfg,
		ledger: cfg.Ledger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
		members:  make(map[string]map[string]*session),
	}

	s.rooms = NewRoomStore(func(id string) *game.Room {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return game.NewRoom(game.RoomConfig{
			ID:          id,
			Log:         cfg.RoomLog,
			Notifier:    s,
			AnteMode:    cfg.AnteMode,
			DefaultAnte: cfg.DefaultAnte,
			MaxRaise:    cfg.MaxRaise,
			Rand:        rand.New(rand.NewSource(seed)),
		})
	})

	return s
}

// Rooms returns the server's room store.
func (s *Server) Rooms() *RoomStore {
	return s.rooms
}

// Router returns the HTTP surface: the websocket endpoint, the checkHost
// query consumed by the join UI, and the static client files.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Get("/checkHost", s.handleCheckHost)
	if s.cfg.ClientDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.ClientDir)))
	}
	return r
}

// handleWS upgrades the connection and runs the session until the client
// goes away. Room state is untouched on disconnect; the player rejoins with
// the same name and pin.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("websocket upgrade: %v", err)
		return
	}

	sess := newSession(s, conn)
	s.addSession(sess)
	s.log.Debugf("session %s connected", sess.id)

	go sess.writePump()
	sess.readPump()

	s.removeSession(sess)
	s.log.Debugf("session %s disconnected", sess.id)
}

// handleCheckHost answers whether a room already has a host.
func (s *Server) handleCheckHost(w http.ResponseWriter, r *http.Request) {
	gotHost := false
	if room, ok := s.rooms.Get(r.URL.Query().Get("room")); ok {
		gotHost = room.HasHost()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"gotHost": gotHost})
}

// addSession registers a connected session.
func (s *Server) addSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

// removeSession drops a session and its room membership.
func (s *Server) removeSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.id)
	if sess.room != "" {
		if members, ok := s.members[sess.room]; ok {
			delete(members, sess.id)
		}
	}
	close(sess.send)
}

// joinRoomChannel adds the session to a room's broadcast group.
func (s *Server) joinRoomChannel(sess *session, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.room != "" && sess.room != roomID {
		if members, ok := s.members[sess.room]; ok {
			delete(members, sess.id)
		}
	}
	sess.room = roomID
	if s.members[roomID] == nil {
		s.members[roomID] = make(map[string]*session)
	}
	s.members[roomID][sess.id] = sess
}

// outFrame is the wire shape of every outbound notification.
type outFrame struct {
	Type    game.NotificationType `json:"type"`
	Payload interface{}           `json:"payload,omitempty"`
}

// marshalNtfn serializes a notification frame. Marshaling happens in the
// command handler, under the room lock, so payloads referencing live room
// state are snapshotted before any later mutation.
func (s *Server) marshalNtfn(ntfn game.NotificationType, payload interface{}) ([]byte, bool) {
	b, err := json.Marshal(outFrame{Type: ntfn, Payload: payload})
	if err != nil {
		s.log.Errorf("marshal %s notification: %v", ntfn, err)
		return nil, false
	}
	return b, true
}

// ToRoom broadcasts a notification to every connection in the room.
// Sends are fire-and-forget; a slow client drops frames rather than
// blocking the room.
func (s *Server) ToRoom(roomID string, ntfn game.NotificationType, payload interface{}) {
	frame, ok := s.marshalNtfn(ntfn, payload)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.members[roomID] {
		sess.enqueue(frame)
	}
}

// ToPlayer sends a notification to a single connection.
func (s *Server) ToPlayer(connID string, ntfn game.NotificationType, payload interface{}) {
	frame, ok := s.marshalNtfn(ntfn, payload)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[connID]; ok {
		sess.enqueue(frame)
	}
}

// recordTransfers writes money movements to the ledger. Ledger failures are
// logged, never surfaced to the room: the game state is authoritative.
func (s *Server) recordTransfers(roomID, description string, transfers []game.Transfer) {
	if s.ledger == nil {
		return
	}
	for _, t := range transfers {
		err := s.ledger.UpdatePlayerBalance(roomID, t.Player, t.Amount, t.Kind, description)
		if err != nil {
			s.log.Errorf("ledger: %s %s %d: %v", roomID, t.Player, t.Amount, err)
		}
	}
}
