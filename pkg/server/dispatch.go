package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/cardroom/cardroom/pkg/game"
)

// Inbound message channels.
const (
	msgJoin          = "join"
	msgHostCommand   = "hostCommand"
	msgDealerCommand = "dealerCommand"
	msgBetCommand    = "betCommand"
)

// Host, dealer and bet command names.
const (
	cmdPickDealer     = "PickDealer"
	cmdHandSetup      = "HandSetup"
	cmdDealToAll      = "DealToAll"
	cmdDealToSpecific = "DealToSpecific"
	cmdBetInitiate    = "BetInitiate"
	cmdShowAllHands   = "EndShowAllHands"
	cmdPayout         = "Payout"
	cmdMuckReshuffle  = "MuckReshuffle"
	cmdDealAgain      = "DealAgain"
	cmdPassDeal       = "PassDeal"
	cmdCheck          = "Check"
	cmdBetRaise       = "BetRaise"
	cmdFold           = "Fold"
)

// inboundMsg is the command envelope. Join carries its fields inline; the
// command channels carry a per-command payload decoded against a typed
// request before reaching the state machine.
type inboundMsg struct {
	Type    string          `json:"type"`
	Room    string          `json:"room"`
	Command string          `json:"command,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Join fields.
	Name  string `json:"name,omitempty"`
	Pin   string `json:"pin,omitempty"`
	Host  bool   `json:"host,omitempty"`
	BuyIn int64  `json:"buyIn,omitempty"`
}

// Per-command request types.

type pickDealerRequest struct {
	Mode   string `json:"mode"`
	Player string `json:"player"`
}

type handSetupRequest struct {
	GameName    string `json:"gameName"`
	CommentInfo string `json:"commentInfo"`
	AnteAmount  int64  `json:"anteAmount"`
}

type dealToAllRequest struct {
	DealMode        string `json:"dealMode"`
	StartPlayerName string `json:"startPlayerName"`
}

type dealToSpecificRequest struct {
	DealMode     string `json:"dealMode"`
	ToPlayerName string `json:"toPlayerName"`
	Special      bool   `json:"special"`
}

type betInitiateRequest struct {
	StartPlayerName string `json:"startPlayerName"`
}

type betActionRequest struct {
	Player   string `json:"player"`
	SocketID string `json:"socketId"`
	Bet      int64  `json:"bet"`
}

// handleMessage is the single dispatch point for a session's inbound
// traffic. Every failure is recovered here and surfaced as a targeted
// notification; no command tears down the room.
func (s *Server) handleMessage(sess *session, data []byte) {
	var msg inboundMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Errorf("session %s: undecodable message: %v", sess.id, err)
		return
	}

	switch msg.Type {
	case msgJoin:
		s.handleJoin(sess, &msg)
	case msgHostCommand:
		s.handleHostCommand(sess, &msg)
	case msgDealerCommand:
		s.handleDealerCommand(sess, &msg)
	case msgBetCommand:
		s.handleBetCommand(sess, &msg)
	default:
		s.log.Warnf("session %s: unknown message type %q", sess.id, msg.Type)
	}
}

// handleJoin creates or resumes a player. A resumed player gets the same
// balance, fold status and pot contribution as before the drop, plus a
// rebuilt view of the current phase.
func (s *Server) handleJoin(sess *session, msg *inboundMsg) {
	name := strings.TrimSpace(msg.Name)
	if msg.Room == "" || name == "" {
		sess.notify(game.NtfnJoinError, map[string]string{"errorMsg": "Room and name are required."})
		return
	}

	room := s.rooms.GetOrCreate(msg.Room)
	player, rejoin, err := room.Join(name, msg.Pin, sess.id, msg.Host, msg.BuyIn)
	if err != nil {
		sess.notify(game.NtfnJoinError, map[string]string{"errorMsg": "Player Name already exists."})
		return
	}

	sess.player = name
	s.joinRoomChannel(sess, msg.Room)
	sess.notify(game.NtfnJoinSuccess, nil)
	room.BroadcastPlayerList()

	if rejoin {
		room.Recover(player)
		return
	}
	if msg.BuyIn > 0 {
		s.recordTransfers(msg.Room, "buy-in",
			[]game.Transfer{{Player: name, Amount: msg.BuyIn, Kind: "buyin"}})
	}
}

// handleHostCommand routes a host command.
func (s *Server) handleHostCommand(sess *session, msg *inboundMsg) {
	room, ok := s.rooms.Get(msg.Room)
	if !ok {
		return
	}
	if !room.IsHost(sess.id) {
		sess.notify(game.NtfnHostCommandFailure, "Not the room host.")
		return
	}

	fail := func(err error) {
		sess.notify(game.NtfnHostCommandFailure, err.Error())
	}

	switch msg.Command {
	case cmdPickDealer:
		var req pickDealerRequest
		if err := s.decode(msg.Payload, &req); err != nil {
			fail(err)
			return
		}
		if err := room.PickDealer(req.Mode, req.Player); err != nil {
			fail(err)
			return
		}
		sess.notify(game.NtfnHostCommandSuccess, nil)

	default:
		fail(fmt.Errorf("Unknown Command - %s", msg.Command))
	}
}

// handleDealerCommand routes a dealer command. Only the dealer's live
// connection may drive the hand.
func (s *Server) handleDealerCommand(sess *session, msg *inboundMsg) {
	room, ok := s.rooms.Get(msg.Room)
	if !ok {
		return
	}
	if !room.IsDealer(sess.id) {
		sess.notify(game.NtfnDealerCommandFailure, "Not the dealer.")
		return
	}

	fail := func(err error) {
		sess.notify(game.NtfnDealerCommandFailure, err.Error())
	}

	switch msg.Command {
	case cmdHandSetup:
		var req handSetupRequest
		if err := s.decode(msg.Payload, &req); err != nil {
			fail(err)
			return
		}
		transfers, err := room.HandSetup(req.GameName, req.CommentInfo, req.AnteAmount)
		if err != nil {
			fail(err)
			return
		}
		s.recordTransfers(msg.Room, "ante: "+req.GameName, transfers)

	case cmdDealToAll:
		var req dealToAllRequest
		if err := s.decode(msg.Payload, &req); err != nil {
			fail(err)
			return
		}
		if err := room.DealToAll(req.DealMode, req.StartPlayerName); err != nil {
			fail(err)
		}

	case cmdDealToSpecific:
		var req dealToSpecificRequest
		if err := s.decode(msg.Payload, &req); err != nil {
			fail(err)
			return
		}
		if err := room.DealToSpecific(req.DealMode, req.ToPlayerName, req.Special); err != nil {
			fail(err)
		}

	case cmdBetInitiate:
		var req betInitiateRequest
		if err := s.decode(msg.Payload, &req); err != nil {
			fail(err)
			return
		}
		if err := room.BetInitiate(req.StartPlayerName); err != nil {
			fail(err)
		}

	case cmdShowAllHands:
		if err := room.ShowAllHands(); err != nil {
			fail(err)
		}

	case cmdPayout:
		var winners []game.Winner
		if err := s.decode(msg.Payload, &winners); err != nil {
			fail(err)
			return
		}
		transfers, err := room.Payout(winners)
		if err != nil {
			fail(err)
			return
		}
		s.recordTransfers(msg.Room, "payout", transfers)

	case cmdMuckReshuffle:
		if err := room.MuckReshuffle(); err != nil {
			fail(err)
		}

	case cmdDealAgain:
		if err := room.DealAgain(); err != nil {
			fail(err)
		}

	case cmdPassDeal:
		if err := room.PassDeal(); err != nil {
			fail(err)
		}

	default:
		fail(fmt.Errorf("Unknown Command - %s", msg.Command))
	}
}

// handleBetCommand routes a bet action. The player name and connection id
// must match a seated player; a mismatch is reported back as a possible
// cheating or desync signal and nothing is mutated.
func (s *Server) handleBetCommand(sess *session, msg *inboundMsg) {
	room, ok := s.rooms.Get(msg.Room)
	if !ok {
		return
	}

	fail := func(err error) {
		sess.notify(game.NtfnBetCommandFailure, err.Error())
	}

	var req betActionRequest
	if err := s.decode(msg.Payload, &req); err != nil {
		fail(err)
		return
	}
	if !room.AuthPlayer(req.Player, req.SocketID) {
		fail(errors.New("player name/socket id mismatch"))
		return
	}

	switch msg.Command {
	case cmdCheck:
		if err := room.Check(req.Player); err != nil {
			fail(err)
		}

	case cmdBetRaise:
		transfer, err := room.BetRaise(req.Player, req.Bet)
		if err != nil {
			fail(err)
			return
		}
		s.recordTransfers(msg.Room, "bet", []game.Transfer{transfer})

	case cmdFold:
		if err := room.Fold(req.Player); err != nil {
			fail(err)
		}

	default:
		fail(fmt.Errorf("Unknown Command - %s", msg.Command))
	}
}

// decode unmarshals a command payload into its typed request.
func (s *Server) decode(payload json.RawMessage, dst interface{}) error {
	if len(payload) == 0 {
		return fmt.Errorf("missing command payload")
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		s.log.Debugf("undecodable payload: %v; full payload: %s", err, spew.Sdump(payload))
		return fmt.Errorf("unable to decode command payload: %v", err)
	}
	return nil
}
