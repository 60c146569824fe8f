package game

import (
	"sync"

	"github.com/rs/zerolog"
)

// Session is one connected client as the service sees it: a stable identity
// plus a non-blocking outbound send.
type Session interface {
	ID() string
	Send(event string, data any)
}

// RoomRegistry tracks which sessions belong to which room and delivers
// room-scoped broadcasts.
type RoomRegistry interface {
	Join(roomID string, s Session)
	Leave(roomID string, s Session)
	Drop(roomID string)
	ToRoom(roomID, event string, data any)
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Session]struct{}
	log   zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[Session]struct{}),
		log:   log,
	}
}

func (h *Hub) Join(roomID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[Session]struct{})
		h.rooms[roomID] = members
	}
	members[s] = struct{}{}
}

func (h *Hub) Leave(roomID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Drop forgets a room and all its members, used when the room is deleted.
func (h *Hub) Drop(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

// ToRoom sends an event to every session in the room. Sessions that cannot
// keep up drop the frame rather than block the caller.
func (h *Hub) ToRoom(roomID, event string, data any) {
	h.mu.RLock()
	members := make([]Session, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		s.Send(event, data)
	}
}
