package main

import (
	"crypto/rand"
	"sync"
	"time"
)

// seat locates a connection inside a room.
type seat struct {
	code string
	slot int
}

// Registry owns every live room plus the connection index. Rooms are
// created by create_game and removed when either player disconnects or
// when the idle reaper ends them.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	conns map[string]seat

	idleTimeout time.Duration
}

func newRegistry(idleTimeout time.Duration) *Registry {
	reg := &Registry{
		rooms:       make(map[string]*Room),
		conns:       make(map[string]seat),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go reg.reaperLoop()
	}
	return reg
}

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// newRoomCode generates a crypto-random room code and ensures it
// doesn't collide with a live room.
func (reg *Registry) newRoomCode() string {
	for {
		buf := make([]byte, codeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, codeLength)
		for i := range out {
			out[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		code := string(out)

		reg.mu.RLock()
		_, exists := reg.rooms[code]
		reg.mu.RUnlock()

		if !exists {
			return code
		}
	}
}

// create builds a fresh room with the creator seated at slot 0.
func (reg *Registry) create(connID, name string) *Room {
	code := reg.newRoomCode()
	room := newRoom(code, &Player{ConnID: connID, Name: name})

	reg.mu.Lock()
	reg.rooms[code] = room
	reg.conns[connID] = seat{code: code, slot: 0}
	reg.mu.Unlock()

	return room
}

// join records the seat of a connection added to an existing room.
func (reg *Registry) join(connID, code string, slot int) {
	reg.mu.Lock()
	reg.conns[connID] = seat{code: code, slot: slot}
	reg.mu.Unlock()
}

func (reg *Registry) lookupByCode(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room, ok := reg.rooms[code]
	return room, ok
}

func (reg *Registry) lookupByConnection(connID string) (*Room, int, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	s, ok := reg.conns[connID]
	if !ok {
		return nil, 0, false
	}
	room, ok := reg.rooms[s.code]
	if !ok {
		return nil, 0, false
	}
	return room, s.slot, true
}

// remove drops the room and every connection seated in it.
func (reg *Registry) remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.rooms, code)
	for connID, s := range reg.conns {
		if s.code == code {
			delete(reg.conns, connID)
		}
	}
}

// reaperLoop periodically removes rooms that have been idle longer
// than idleTimeout, disconnecting their clients.
func (reg *Registry) reaperLoop() {
	ticker := time.NewTicker(reg.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-reg.idleTimeout)

		reg.mu.Lock()
		for code, room := range reg.rooms {
			if room.idleSince().Before(cutoff) {
				delete(reg.rooms, code)
				for connID, s := range reg.conns {
					if s.code == code {
						delete(reg.conns, connID)
					}
				}
				go room.closeAll()
			}
		}
		reg.mu.Unlock()
	}
}
