package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/cardroom/pkg/game"
)

// memLedgerEntry is one recorded transaction.
type memLedgerEntry struct {
	Room   string
	Player string
	Amount int64
	TxType string
}

// memLedger is an in-memory Ledger for tests.
type memLedger struct {
	mu      sync.Mutex
	entries []memLedgerEntry
}

func (m *memLedger) GetPlayerBalance(roomID, player string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var balance int64
	for _, e := range m.entries {
		if e.Room == roomID && e.Player == player {
			balance += e.Amount
		}
	}
	return balance, nil
}

func (m *memLedger) UpdatePlayerBalance(roomID, player string, amount int64, txType, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, memLedgerEntry{
		Room: roomID, Player: player, Amount: amount, TxType: txType,
	})
	return nil
}

func (m *memLedger) Close() error { return nil }

// roomTotal sums every recorded movement for a room.
func (m *memLedger) roomTotal(roomID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, e := range m.entries {
		if e.Room == roomID {
			total += e.Amount
		}
	}
	return total
}

// newTestServer builds a server with an in-memory ledger and a fixed
// shuffle seed.
func newTestServer(t *testing.T) (*Server, *memLedger) {
	t.Helper()
	ledger := &memLedger{}
	s := NewServer(Config{
		Ledger:      ledger,
		AnteMode:    game.AntePerPlayer,
		DefaultAnte: 50,
		MaxRaise:    4,
		Seed:        42,
	})
	return s, ledger
}

// fakeSession registers an unconnected session; its send queue stands in
// for the websocket.
func fakeSession(s *Server, id string) *session {
	sess := &session{
		id:   id,
		srv:  s,
		send: make(chan []byte, sendBuffer),
	}
	s.addSession(sess)
	return sess
}

// drain decodes every frame queued on the session.
func drain(t *testing.T, sess *session) []outFrame {
	t.Helper()
	var frames []outFrame
	for {
		select {
		case raw := <-sess.send:
			var f outFrame
			require.NoError(t, json.Unmarshal(raw, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

// frameTypes lists the notification types in order.
func frameTypes(frames []outFrame) []game.NotificationType {
	out := make([]game.NotificationType, len(frames))
	for i, f := range frames {
		out[i] = f.Type
	}
	return out
}

func hasFrame(frames []outFrame, ntfn game.NotificationType) bool {
	for _, f := range frames {
		if f.Type == ntfn {
			return true
		}
	}
	return false
}

// send builds the command envelope and dispatches it as if it arrived on
// the wire.
func send(t *testing.T, s *Server, sess *session, msgType, room, command string, payload interface{}) {
	t.Helper()
	msg := map[string]interface{}{"type": msgType, "room": room}
	if command != "" {
		msg["command"] = command
	}
	if payload != nil {
		msg["payload"] = payload
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	s.handleMessage(sess, raw)
}

// join sends a join message for the session.
func join(t *testing.T, s *Server, sess *session, room, name, pin string, host bool, buyIn int64) {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"type": msgJoin, "room": room, "name": name, "pin": pin,
		"host": host, "buyIn": buyIn,
	})
	require.NoError(t, err)
	s.handleMessage(sess, raw)
}

func TestJoinCreatesRoom(t *testing.T) {
	s, ledger := newTestServer(t)
	sess := fakeSession(s, "c1")

	join(t, s, sess, "friday", "alice", "1234", true, 10000)

	frames := drain(t, sess)
	require.True(t, hasFrame(frames, game.NtfnJoinSuccess), "no joinSuccess in %v", frameTypes(frames))
	require.True(t, hasFrame(frames, game.NtfnPlayerList))

	room, ok := s.Rooms().Get("friday")
	require.True(t, ok)
	assert.Equal(t, 1, s.Rooms().Len())
	assert.True(t, room.HasHost())

	// The buy-in is the opening ledger entry.
	balance, err := ledger.GetPlayerBalance("friday", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)
}

func TestJoinDuplicateNameRejected(t *testing.T) {
	s, _ := newTestServer(t)
	s1 := fakeSession(s, "c1")
	s2 := fakeSession(s, "c2")

	join(t, s, s1, "friday", "alice", "1234", false, 100)
	drain(t, s1)

	join(t, s, s2, "friday", "alice", "9999", false, 100)
	frames := drain(t, s2)
	require.True(t, hasFrame(frames, game.NtfnJoinError), "expected joinError, got %v", frameTypes(frames))
	require.False(t, hasFrame(frames, game.NtfnJoinSuccess))
}

func TestJoinRequiresRoomAndName(t *testing.T) {
	s, _ := newTestServer(t)
	sess := fakeSession(s, "c1")

	join(t, s, sess, "friday", "   ", "1234", false, 100)
	frames := drain(t, sess)
	require.True(t, hasFrame(frames, game.NtfnJoinError))
	assert.Equal(t, 0, s.Rooms().Len())
}

func TestRejoinRestoresView(t *testing.T) {
	s, _ := newTestServer(t)
	host := fakeSession(s, "c1")
	other := fakeSession(s, "c2")

	join(t, s, host, "friday", "alice", "1111", true, 10000)
	join(t, s, other, "friday", "bob", "2222", false, 10000)
	drain(t, host)
	drain(t, other)

	send(t, s, host, msgHostCommand, "friday", cmdPickDealer,
		pickDealerRequest{Mode: game.PickDealerManual, Player: "alice"})
	send(t, s, host, msgDealerCommand, "friday", cmdHandSetup,
		handSetupRequest{GameName: "seven card stud", AnteAmount: 50})
	send(t, s, host, msgDealerCommand, "friday", cmdDealToAll,
		dealToAllRequest{DealMode: game.DealFaceDown, StartPlayerName: "bob"})
	drain(t, host)
	drain(t, other)

	// bob drops and comes back on a new connection.
	s.removeSession(other)
	other2 := fakeSession(s, "c3")
	join(t, s, other2, "friday", "bob", "2222", false, 0)

	frames := drain(t, other2)
	require.True(t, hasFrame(frames, game.NtfnJoinSuccess), "got %v", frameTypes(frames))
	require.True(t, hasFrame(frames, game.NtfnRejoinState), "got %v", frameTypes(frames))

	room, _ := s.Rooms().Get("friday")
	require.True(t, room.AuthPlayer("bob", "c3"))
	require.False(t, room.AuthPlayer("bob", "c2"))
}

func TestHostCommandRequiresHost(t *testing.T) {
	s, _ := newTestServer(t)
	host := fakeSession(s, "c1")
	other := fakeSession(s, "c2")

	join(t, s, host, "friday", "alice", "1111", true, 100)
	join(t, s, other, "friday", "bob", "2222", false, 100)
	drain(t, host)
	drain(t, other)

	send(t, s, other, msgHostCommand, "friday", cmdPickDealer,
		pickDealerRequest{Mode: game.PickDealerManual, Player: "bob"})
	frames := drain(t, other)
	require.True(t, hasFrame(frames, game.NtfnHostCommandFailure), "got %v", frameTypes(frames))

	send(t, s, host, msgHostCommand, "friday", cmdPickDealer,
		pickDealerRequest{Mode: game.PickDealerManual, Player: "bob"})
	frames = drain(t, host)
	require.True(t, hasFrame(frames, game.NtfnHostCommandSuccess), "got %v", frameTypes(frames))
}

func TestUnknownCommandsFail(t *testing.T) {
	s, _ := newTestServer(t)
	host := fakeSession(s, "c1")
	join(t, s, host, "friday", "alice", "1111", true, 100)
	send(t, s, host, msgHostCommand, "friday", cmdPickDealer,
		pickDealerRequest{Mode: game.PickDealerManual, Player: "alice"})
	drain(t, host)

	send(t, s, host, msgHostCommand, "friday", "Bogus", map[string]string{})
	frames := drain(t, host)
	require.True(t, hasFrame(frames, game.NtfnHostCommandFailure))

	send(t, s, host, msgDealerCommand, "friday", "Bogus", map[string]string{})
	frames = drain(t, host)
	require.True(t, hasFrame(frames, game.NtfnDealerCommandFailure))
}

func TestDealerCommandRequiresDealer(t *testing.T) {
	s, _ := newTestServer(t)
	host := fakeSession(s, "c1")
	other := fakeSession(s, "c2")

	join(t, s, host, "friday", "alice", "1111", true, 100)
	join(t, s, other, "friday", "bob", "2222", false, 100)
	send(t, s, host, msgHostCommand, "friday", cmdPickDealer,
		pickDealerRequest{Mode: game.PickDealerManual, Player: "alice"})
	drain(t, host)
	drain(t, other)

	send(t, s, other, msgDealerCommand, "friday", cmdHandSetup,
		handSetupRequest{GameName: "x", AnteAmount: 50})
	frames := drain(t, other)
	require.True(t, hasFrame(frames, game.NtfnDealerCommandFailure), "got %v", frameTypes(frames))
}

func TestBetCommandAuthMismatch(t *testing.T) {
	s, _ := newTestServer(t)
	host := fakeSession(s, "c1")
	other := fakeSession(s, "c2")

	join(t, s, host, "friday", "alice", "1111", true, 10000)
	join(t, s, other, "friday", "bob", "2222", false, 10000)
	send(t, s, host, msgHostCommand, "friday", cmdPickDealer,
		pickDealerRequest{Mode: game.PickDealerManual, Player: "alice"})
	send(t, s, host, msgDealerCommand, "friday", cmdHandSetup,
		handSetupRequest{GameName: "x", AnteAmount: 50})
	send(t, s, host, msgDealerCommand, "friday", cmdBetInitiate,
		betInitiateRequest{StartPlayerName: "bob"})
	drain(t, host)
	drain(t, other)

	// bob's name with alice's connection id.
	send(t, s, other, msgBetCommand, "friday", cmdCheck,
		betActionRequest{Player: "bob", SocketID: "c1"})
	frames := drain(t, other)
	require.True(t, hasFrame(frames, game.NtfnBetCommandFailure), "got %v", frameTypes(frames))

	room, _ := s.Rooms().Get("friday")
	assert.Equal(t, game.PhaseBet, room.Phase())
}

func TestFullHandLedgerConservation(t *testing.T) {
	s, ledger := newTestServer(t)
	names := []string{"alice", "bob", "carol"}
	sessions := make(map[string]*session)
	for i, name := range names {
		sess := fakeSession(s, fmt.Sprintf("c%d", i+1))
		sessions[name] = sess
		join(t, s, sess, "friday", name, "pin", i == 0, 10000)
	}

	send(t, s, sessions["alice"], msgHostCommand, "friday", cmdPickDealer,
		pickDealerRequest{Mode: game.PickDealerManual, Player: "alice"})
	send(t, s, sessions["alice"], msgDealerCommand, "friday", cmdHandSetup,
		handSetupRequest{GameName: "follow the queen", AnteAmount: 50})
	send(t, s, sessions["alice"], msgDealerCommand, "friday", cmdDealToAll,
		dealToAllRequest{DealMode: game.DealFaceDown, StartPlayerName: "bob"})
	send(t, s, sessions["alice"], msgDealerCommand, "friday", cmdBetInitiate,
		betInitiateRequest{StartPlayerName: "bob"})

	// bob raises 100, carol and alice call.
	send(t, s, sessions["bob"], msgBetCommand, "friday", cmdBetRaise,
		betActionRequest{Player: "bob", SocketID: "c2", Bet: 100})
	send(t, s, sessions["carol"], msgBetCommand, "friday", cmdBetRaise,
		betActionRequest{Player: "carol", SocketID: "c3", Bet: 0})
	send(t, s, sessions["alice"], msgBetCommand, "friday", cmdBetRaise,
		betActionRequest{Player: "alice", SocketID: "c1", Bet: 0})

	room, _ := s.Rooms().Get("friday")
	require.Equal(t, game.PhaseDeal, room.Phase())

	// Pot is 150 ante plus 300 bet; the dealer splits it.
	send(t, s, sessions["alice"], msgDealerCommand, "friday", cmdShowAllHands, nil)
	send(t, s, sessions["alice"], msgDealerCommand, "friday", cmdPayout,
		[]game.Winner{{Name: "bob", Amount: 300}, {Name: "carol", Amount: 150}})

	for _, sess := range sessions {
		frames := drain(t, sess)
		assert.True(t, hasFrame(frames, game.NtfnShowAllHands),
			"%s missed showAllHands: %v", sess.player, frameTypes(frames))
	}

	require.Equal(t, game.PhaseDealWait, room.Phase())

	// Every movement is recorded; buy-ins aside, the hand nets to zero.
	assert.Equal(t, int64(3*10000), ledger.roomTotal("friday"))
	for _, p := range room.Players() {
		recorded, err := ledger.GetPlayerBalance("friday", p.Name)
		require.NoError(t, err)
		assert.Equal(t, p.Balance, recorded, "ledger drift for %s", p.Name)
	}

	// The dealer keeps or passes the deal from here.
	send(t, s, sessions["alice"], msgDealerCommand, "friday", cmdPassDeal, nil)
	require.Equal(t, game.PhaseGameSetup, room.Phase())
	for _, p := range room.Players() {
		if p.Name == "bob" {
			assert.True(t, p.IsDealer, "deal did not pass to bob")
		} else {
			assert.False(t, p.IsDealer)
		}
	}
}

func TestCheckHostEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	sess := fakeSession(s, "c1")
	join(t, s, sess, "friday", "alice", "1111", true, 100)

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	check := func(room string, want bool) {
		resp, err := http.Get(srv.URL + "/checkHost?room=" + room)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, want, body["gotHost"], "room %q", room)
	}

	check("friday", true)
	check("nosuchroom", false)
}

func TestSlowClientDropsFramesWithoutBlocking(t *testing.T) {
	s, _ := newTestServer(t)
	sess := fakeSession(s, "c1")
	join(t, s, sess, "friday", "alice", "1111", true, 100)

	// Fill the queue far past its depth; the broadcast must never block.
	for i := 0; i < sendBuffer*2; i++ {
		s.ToRoom("friday", game.NtfnPlayerList, map[string]int{"i": i})
	}
	frames := drain(t, sess)
	assert.LessOrEqual(t, len(frames), sendBuffer)
}
