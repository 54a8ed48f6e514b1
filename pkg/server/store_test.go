package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/cardroom/pkg/game"
)

func TestRoomStoreGetOrCreate(t *testing.T) {
	created := 0
	rs := NewRoomStore(func(id string) *game.Room {
		created++
		return game.NewRoom(game.RoomConfig{ID: id, Notifier: nopNotifier{}})
	})

	_, ok := rs.Get("friday")
	assert.False(t, ok)
	assert.Equal(t, 0, rs.Len())

	r1 := rs.GetOrCreate("friday")
	r2 := rs.GetOrCreate("friday")
	require.Same(t, r1, r2)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, rs.Len())

	rs.GetOrCreate("saturday")
	assert.Equal(t, 2, rs.Len())

	rs.Remove("friday")
	_, ok = rs.Get("friday")
	assert.False(t, ok)
	assert.Equal(t, 1, rs.Len())
}

type nopNotifier struct{}

func (nopNotifier) ToRoom(string, game.NotificationType, interface{})   {}
func (nopNotifier) ToPlayer(string, game.NotificationType, interface{}) {}
