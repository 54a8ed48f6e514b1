package server

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gorilla/websocket"

	"github.com/cardroom/cardroom/pkg/game"
)

// sendBuffer is the per-session outbound queue depth. When a client cannot
// drain it, frames are dropped rather than blocking command handling.
const sendBuffer = 64

// session is one websocket connection. A session may bind to at most one
// player in one room; the binding is established by a successful join and
// re-established by rejoin after a reconnect.
type session struct {
	id   string
	srv  *Server
	conn *websocket.Conn
	send chan []byte

	// room and player are set by join. They are only written from the
	// session's own read loop.
	room   string
	player string
}

func newSession(s *Server, conn *websocket.Conn) *session {
	return &session{
		id:   newSessionID(),
		srv:  s,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// newSessionID generates an opaque connection identifier.
func newSessionID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("session id entropy unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

// readPump decodes inbound messages and hands them to the dispatcher until
// the connection drops. Each message is handled to completion before the
// next is read, so a single client's commands cannot race each other.
func (sess *session) readPump() {
	defer sess.conn.Close()
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		sess.srv.handleMessage(sess, data)
	}
}

// writePump drains the send queue to the connection. It exits when the
// session is removed and its queue closed.
func (sess *session) writePump() {
	for frame := range sess.send {
		if err := sess.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

// enqueue queues an outbound frame without blocking. Frames to a stalled
// client are dropped.
func (sess *session) enqueue(frame []byte) {
	select {
	case sess.send <- frame:
	default:
		sess.srv.log.Warnf("session %s send queue full, dropping frame", sess.id)
	}
}

// notify sends a single notification frame to this session.
func (sess *session) notify(ntfn game.NotificationType, payload interface{}) {
	if frame, ok := sess.srv.marshalNtfn(ntfn, payload); ok {
		sess.enqueue(frame)
	}
}
