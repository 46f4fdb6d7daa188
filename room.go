package main

import (
	"crypto/rand"
	"sync"
	"time"
)

// Room phases. A room starts in waiting, moves to setup when the
// second player is seated, to playing once both cards are in, and to
// ended when someone reaches five lines. An accepted rematch returns
// an ended room to setup. No other transitions are legal; operations
// issued in the wrong phase are ignored.
const (
	phaseWaiting = "waiting"
	phaseSetup   = "setup"
	phasePlaying = "playing"
	phaseEnded   = "ended"
)

const (
	maxPlayers = 2
	poolSize   = gridSize * gridSize
	linesToWin = 5
)

// Player is one seat in a room.
type Player struct {
	ConnID string `json:"id"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Grid   *Grid  `json:"grid"`
	Score  int    `json:"score"`
}

// Room is a single two-player game. Every mutation happens under the
// room's own mutex, so each room has one writer at a time regardless
// of how many connection goroutines feed it.
type Room struct {
	mu sync.Mutex

	code        string
	players     []*Player // slot 0 is the creator
	currentSlot int
	pool        []int              // numbers not yet selected, ascending
	lines       [2]map[string]bool // per-slot line ids already scored
	phase       string

	clients map[*Client]bool

	createdAt  time.Time
	lastActive time.Time
}

func newRoom(code string, creator *Player) *Room {
	now := time.Now()
	return &Room{
		code:        code,
		players:     []*Player{creator},
		currentSlot: coinFlip(),
		pool:        fullPool(),
		lines:       [2]map[string]bool{make(map[string]bool), make(map[string]bool)},
		phase:       phaseWaiting,
		clients:     make(map[*Client]bool),
		createdAt:   now,
		lastActive:  now,
	}
}

func fullPool() []int {
	pool := make([]int, poolSize)
	for i := range pool {
		pool[i] = i + 1
	}
	return pool
}

// coinFlip picks the slot that moves first, using crypto/rand.
func coinFlip() int {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return int(b[0]) % 2
}

// addPlayer seats a second player at slot 1 and reports success. Join
// attempts against a full room are ignored rather than erroring, so a
// stray request can't disturb a game in progress.
func (r *Room) addPlayer(p *Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= maxPlayers {
		return false
	}

	r.players = append(r.players, p)
	if r.phase == phaseWaiting {
		r.phase = phaseSetup
	}
	r.lastActive = time.Now()

	return true
}

// submitGrid validates and stores a card for the submitting player.
// Returns whether the submission was accepted, whether it started the
// game (both players now ready), and any validation error. Cards are
// only accepted before the game starts.
func (r *Room) submitGrid(connID string, layout [][]int) (accepted bool, started bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != phaseWaiting && r.phase != phaseSetup {
		return false, false, nil
	}

	slot := r.slotOfLocked(connID)
	if slot < 0 {
		return false, false, nil
	}

	grid, err := parseLayout(layout)
	if err != nil {
		return false, false, err
	}

	player := r.players[slot]
	player.Grid = grid
	player.Ready = true
	r.lastActive = time.Now()

	if len(r.players) == maxPlayers && r.players[0].Ready && r.players[1].Ready {
		r.phase = phasePlaying
		r.pool = fullPool()
		return true, true, nil
	}

	return true, false, nil
}

// turnResult is the state snapshot produced by a successful selection.
type turnResult struct {
	players     []Player
	pool        []int
	currentSlot int
	winner      *Player
	gameEnded   bool
}

// selectNumber applies one turn: the current player takes number from
// the pool, it is marked on both cards, and both players are credited
// for any newly completed lines. Illegal selections (wrong phase, out
// of turn, number already taken) return nil and change nothing.
func (r *Room) selectNumber(connID string, number int) *turnResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != phasePlaying {
		return nil
	}
	if r.players[r.currentSlot].ConnID != connID {
		return nil
	}

	idx := -1
	for i, n := range r.pool {
		if n == number {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	r.pool = append(r.pool[:idx], r.pool[idx+1:]...)
	r.lastActive = time.Now()

	for _, player := range r.players {
		player.Grid.mark(number)
	}

	// Both players are scored every turn, not just the mover: a shared
	// number can finish lines on either card. Lines already in the
	// per-slot set are never credited twice.
	for slot, player := range r.players {
		for id := range player.Grid.completedLines() {
			if !r.lines[slot][id] {
				r.lines[slot][id] = true
				player.Score++
			}
		}
	}

	// Slot order decides a simultaneous finish in favor of slot 0.
	var winner *Player
	for _, player := range r.players {
		if player.Score >= linesToWin {
			winner = player
			break
		}
	}

	result := &turnResult{
		players:   r.snapshotLocked(),
		pool:      append([]int(nil), r.pool...),
		gameEnded: winner != nil,
	}

	if winner != nil {
		r.phase = phaseEnded
		w := copyPlayer(winner)
		result.winner = &w
	} else {
		r.currentSlot = 1 - r.currentSlot
	}
	result.currentSlot = r.currentSlot

	return result
}

// resetForRematch returns an ended room to setup for another game.
// Seats, names, and the room code survive; the pool, scores, cards,
// line sets, and starting slot all start over.
func (r *Room) resetForRematch() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != phaseEnded {
		return false
	}

	r.phase = phaseSetup
	r.currentSlot = coinFlip()
	r.pool = fullPool()
	r.lines = [2]map[string]bool{make(map[string]bool), make(map[string]bool)}
	for _, player := range r.players {
		player.Ready = false
		player.Grid = nil
		player.Score = 0
	}
	r.lastActive = time.Now()

	return true
}

func (r *Room) slotOfLocked(connID string) int {
	for i, p := range r.players {
		if p.ConnID == connID {
			return i
		}
	}
	return -1
}

func copyPlayer(p *Player) Player {
	cp := *p
	if p.Grid != nil {
		g := *p.Grid
		cp.Grid = &g
	}
	return cp
}

func (r *Room) snapshotLocked() []Player {
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, copyPlayer(p))
	}
	return out
}

// snapshot returns copies of the seated players, safe to hand to the
// write pumps after the lock is released.
func (r *Room) snapshot() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) playerAt(slot int) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot < 0 || slot >= len(r.players) {
		return Player{}, false
	}
	return copyPlayer(r.players[slot]), true
}

func (r *Room) poolSnapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.pool...)
}

func (r *Room) current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentSlot
}

func (r *Room) isFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == maxPlayers
}

func (r *Room) idleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}
