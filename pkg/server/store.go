package server

import (
	"sync"

	"github.com/cardroom/cardroom/pkg/game"
)

// RoomStore is the keyed registry of live rooms. It replaces any ambient
// global state: the server owns one store and hands it to the command
// handlers explicitly.
type RoomStore struct {
	mu      sync.RWMutex
	rooms   map[string]*game.Room
	newRoom func(id string) *game.Room
}

// NewRoomStore creates a store that builds missing rooms with newRoom.
func NewRoomStore(newRoom func(id string) *game.Room) *RoomStore {
	return &RoomStore{
		rooms:   make(map[string]*game.Room),
		newRoom: newRoom,
	}
}

// Get returns the room with id, if it exists.
func (rs *RoomStore) Get(id string) (*game.Room, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	room, ok := rs.rooms[id]
	return room, ok
}

// GetOrCreate returns the room with id, creating it on first join.
func (rs *RoomStore) GetOrCreate(id string) *game.Room {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if room, ok := rs.rooms[id]; ok {
		return room
	}
	room := rs.newRoom(id)
	rs.rooms[id] = room
	return room
}

// Remove drops the room with id from the store.
func (rs *RoomStore) Remove(id string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.rooms, id)
}

// Len returns the number of live rooms.
func (rs *RoomStore) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rooms)
}
