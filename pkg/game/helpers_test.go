package game

import (
	"fmt"
	"math/rand"
)

// recordedNtfn is one captured outbound notification.
type recordedNtfn struct {
	Room    string
	ConnID  string
	Ntfn    NotificationType
	Payload interface{}
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	events []recordedNtfn
}

func (n *recordingNotifier) ToRoom(roomID string, ntfn NotificationType, payload interface{}) {
	n.events = append(n.events, recordedNtfn{Room: roomID, Ntfn: ntfn, Payload: payload})
}

func (n *recordingNotifier) ToPlayer(connID string, ntfn NotificationType, payload interface{}) {
	n.events = append(n.events, recordedNtfn{ConnID: connID, Ntfn: ntfn, Payload: payload})
}

// reset clears the captured events.
func (n *recordingNotifier) reset() {
	n.events = nil
}

// byType returns the captured events of one notification type.
func (n *recordingNotifier) byType(ntfn NotificationType) []recordedNtfn {
	var out []recordedNtfn
	for _, e := range n.events {
		if e.Ntfn == ntfn {
			out = append(out, e)
		}
	}
	return out
}

// newTestRoom builds a room with the named players joined in order, each
// with a 10000 cent buy-in. Player i's pin is "pin<i>" and connection id is
// "conn-<name>".
func newTestRoom(ntfr *recordingNotifier, names ...string) *Room {
	room := NewRoom(RoomConfig{
		ID:          "room1",
		Notifier:    ntfr,
		AnteMode:    AntePerPlayer,
		DefaultAnte: 50,
		MaxRaise:    4,
		Rand:        rand.New(rand.NewSource(42)),
	})

	for i, name := range names {
		_, _, err := room.Join(name, fmt.Sprintf("pin%d", i), "conn-"+name, i == 0, 10000)
		if err != nil {
			panic(err)
		}
	}
	return room
}

// startHand picks the named dealer and sets up a hand with the given ante.
func startHand(room *Room, dealer string, ante int64) {
	if err := room.PickDealer(PickDealerManual, dealer); err != nil {
		panic(err)
	}
	if _, err := room.HandSetup("five card draw", "deuces wild", ante); err != nil {
		panic(err)
	}
}

// moneyTotal sums every room balance plus every pot contribution; the total
// is invariant across ante and bet operations.
func moneyTotal(room *Room) int64 {
	var total int64
	for _, p := range room.players {
		total += p.Balance
	}
	if room.hand != nil {
		total += room.hand.potTotal()
	}
	return total
}
