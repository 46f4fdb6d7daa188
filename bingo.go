// Bingobox two-player bingo
//
// Each player submits a 5x5 card containing the numbers 1 through 25.
// Players then alternate picking numbers from a shared pool; a picked
// number is marked on both cards. Completing a row, column, or diagonal
// scores a point, and the first player to five points wins.
//
// Features:
// - Rooms identified by short codes: create_game returns one,
//   join_game seats the second player
// - Submitted cards are validated as permutations of 1..25
// - Turn order enforced server-side; illegal picks are silently ignored
// - Line scoring runs for both players every turn, never crediting a
//   line twice
// - Rematch negotiation (request/accept/decline) reuses the room
// - Rooms are destroyed when either player disconnects
// - Idle rooms auto-reaped after a configurable timeout
// - Random 6-char room codes via crypto/rand, with server-side
//   collision check
// - In-browser QR button to share a room invite, backed by go-qrcode

package main

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type       string  `json:"type"`                  // "create_game", "join_game", "submit_grid", "select_number", "request_rematch", "accept_rematch", "decline_rematch"
	PlayerName string  `json:"player_name,omitempty"` // create_game / join_game
	Code       string  `json:"code,omitempty"`        // join_game
	Grid       [][]int `json:"grid,omitempty"`        // submit_grid
	Number     int     `json:"number,omitempty"`      // select_number
}

// GameCreatedMessage is sent to the creator with their room code.
type GameCreatedMessage struct {
	Type string `json:"type"` // "game_created"
	Code string `json:"code"`
	Slot int    `json:"slot"`
}

// PlayerJoinedMessage announces the second player. Slot is only set on
// the copy sent to the joiner.
type PlayerJoinedMessage struct {
	Type     string   `json:"type"` // "player_joined"
	Players  []Player `json:"players"`
	CanStart bool     `json:"can_start"`
	Slot     *int     `json:"slot,omitempty"`
}

type PlayerReadyMessage struct {
	Type    string   `json:"type"` // "player_ready"
	Players []Player `json:"players"`
}

type GameStartedMessage struct {
	Type        string   `json:"type"` // "game_started"
	Players     []Player `json:"players"`
	Pool        []int    `json:"pool"`
	CurrentSlot int      `json:"current_slot"`
}

type NumberSelectedMessage struct {
	Type        string   `json:"type"` // "number_selected"
	Players     []Player `json:"players"`
	Pool        []int    `json:"pool"`
	CurrentSlot int      `json:"current_slot"`
	Winner      *Player  `json:"winner,omitempty"`
	GameEnded   bool     `json:"game_ended"`
}

type RematchRequestedMessage struct {
	Type             string `json:"type"` // "rematch_requested"
	RequestingPlayer Player `json:"requesting_player"`
}

// SimpleMessage covers notifications with no payload:
// "rematch_accepted", "rematch_declined", "player_disconnected".
type SimpleMessage struct {
	Type string `json:"type"`
}

// ErrorMessage reports a validation failure to the offending client.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type Client struct {
	conn   *websocket.Conn
	send   chan any
	connID string

	closeOnce sync.Once
}

// close shuts the send channel exactly once; both the room teardown
// paths and the reaper may race to drop the same client.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// trySend queues a message without blocking; a client too slow to
// drain its buffer just misses it.
func (c *Client) trySend(msg any) {
	select {
	case c.send <- msg:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// attach adds a connected client to the room's broadcast set.
func (r *Room) attach(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = true
}

// broadcast queues msg to every connected client in the room. Clients
// whose send buffer is full are dropped, matching the write pump's
// assumption that slow consumers are gone.
func (r *Room) broadcast(msg any) {
	r.broadcastExcept(nil, msg)
}

func (r *Room) broadcastExcept(skip *Client, msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for client := range r.clients {
		if client == skip {
			continue
		}
		select {
		case client.send <- msg:
		default:
			delete(r.clients, client)
			client.close()
		}
	}
}

// closeAll disconnects every client of this room (disconnect teardown
// and the idle reaper both end here).
func (r *Room) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.clients {
		c.close()
		_ = c.conn.Close()
		delete(r.clients, c)
	}
}

// serveBingoWS upgrades the connection and runs the read pump. Each
// connection gets an ephemeral uuid handle; identity does not survive
// the socket.
func serveBingoWS(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:   conn,
			send:   make(chan any, 8),
			connID: uuid.NewString(),
		}

		go client.writePump()
		client.readPump(cfg, reg)
	}
}

// readPump handles this connection's events in arrival order, so a
// single client can never interleave its own moves.
func (c *Client) readPump(cfg *Config, reg *Registry) {
	defer func() {
		handleDisconnect(cfg, reg, c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "create_game":
			handleCreate(cfg, reg, c, msg)
		case "join_game":
			handleJoin(cfg, reg, c, msg)
		case "submit_grid":
			handleSubmitGrid(cfg, reg, c, msg)
		case "select_number":
			handleSelectNumber(cfg, reg, c, msg)
		case "request_rematch":
			handleRematchRequest(cfg, reg, c)
		case "accept_rematch":
			handleRematchAccept(cfg, reg, c)
		case "decline_rematch":
			handleRematchDecline(cfg, reg, c)
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func handleCreate(cfg *Config, reg *Registry, c *Client, msg ClientMessage) {
	if _, _, ok := reg.lookupByConnection(c.connID); ok {
		return
	}

	room := reg.create(c.connID, msg.PlayerName)
	room.attach(c)

	c.trySend(GameCreatedMessage{
		Type: "game_created",
		Code: room.code,
		Slot: 0,
	})

	logf(cfg, "GAMES: Room %s created by %q", room.code, msg.PlayerName)
}

func handleJoin(cfg *Config, reg *Registry, c *Client, msg ClientMessage) {
	if _, _, ok := reg.lookupByConnection(c.connID); ok {
		return
	}

	room, ok := reg.lookupByCode(msg.Code)
	if !ok {
		c.trySend(ErrorMessage{
			Type:    "error",
			Message: "game not found",
		})
		return
	}

	player := &Player{ConnID: c.connID, Name: msg.PlayerName}
	if !room.addPlayer(player) {
		// Full rooms ignore stray join attempts.
		return
	}

	reg.join(c.connID, room.code, 1)
	room.attach(c)

	players := room.snapshot()
	canStart := room.isFull()

	slot := 1
	c.trySend(PlayerJoinedMessage{
		Type:     "player_joined",
		Players:  players,
		CanStart: canStart,
		Slot:     &slot,
	})
	room.broadcastExcept(c, PlayerJoinedMessage{
		Type:     "player_joined",
		Players:  players,
		CanStart: canStart,
	})

	logf(cfg, "GAMES: Player %q joined room %s", msg.PlayerName, room.code)
}

func handleSubmitGrid(cfg *Config, reg *Registry, c *Client, msg ClientMessage) {
	room, _, ok := reg.lookupByConnection(c.connID)
	if !ok {
		return
	}

	accepted, started, err := room.submitGrid(c.connID, msg.Grid)
	if err != nil {
		c.trySend(ErrorMessage{
			Type:    "error",
			Message: err.Error(),
		})
		return
	}
	if !accepted {
		return
	}

	room.broadcast(PlayerReadyMessage{
		Type:    "player_ready",
		Players: room.snapshot(),
	})

	if started {
		players := room.snapshot()
		current := room.current()

		room.broadcast(GameStartedMessage{
			Type:        "game_started",
			Players:     players,
			Pool:        room.poolSnapshot(),
			CurrentSlot: current,
		})

		logf(cfg, "GAMES: Room %s started with %q going first", room.code, players[current].Name)
	}
}

func handleSelectNumber(cfg *Config, reg *Registry, c *Client, msg ClientMessage) {
	room, _, ok := reg.lookupByConnection(c.connID)
	if !ok {
		return
	}

	result := room.selectNumber(c.connID, msg.Number)
	if result == nil {
		return
	}

	room.broadcast(NumberSelectedMessage{
		Type:        "number_selected",
		Players:     result.players,
		Pool:        result.pool,
		CurrentSlot: result.currentSlot,
		Winner:      result.winner,
		GameEnded:   result.gameEnded,
	})

	if result.gameEnded {
		logf(cfg, "GAMES: Room %s ended, %q wins", room.code, result.winner.Name)
	}
}

func handleRematchRequest(cfg *Config, reg *Registry, c *Client) {
	room, slot, ok := reg.lookupByConnection(c.connID)
	if !ok {
		return
	}

	requester, ok := room.playerAt(slot)
	if !ok {
		return
	}

	room.broadcastExcept(c, RematchRequestedMessage{
		Type:             "rematch_requested",
		RequestingPlayer: requester,
	})

	logf(cfg, "GAMES: %q requested a rematch in room %s", requester.Name, room.code)
}

func handleRematchAccept(cfg *Config, reg *Registry, c *Client) {
	room, _, ok := reg.lookupByConnection(c.connID)
	if !ok {
		return
	}

	if !room.resetForRematch() {
		return
	}

	room.broadcast(SimpleMessage{Type: "rematch_accepted"})

	logf(cfg, "GAMES: Rematch accepted in room %s", room.code)
}

func handleRematchDecline(cfg *Config, reg *Registry, c *Client) {
	room, _, ok := reg.lookupByConnection(c.connID)
	if !ok {
		return
	}

	room.broadcastExcept(c, SimpleMessage{Type: "rematch_declined"})
}

// handleDisconnect tears the room down when either player's socket
// closes: the survivor is notified and must return to matchmaking.
// There is no reconnection grace period.
func handleDisconnect(cfg *Config, reg *Registry, c *Client) {
	room, _, ok := reg.lookupByConnection(c.connID)
	if !ok {
		c.close()
		return
	}

	reg.remove(room.code)
	room.broadcastExcept(c, SimpleMessage{Type: "player_disconnected"})
	room.closeAll()
	c.close()

	logf(cfg, "GAMES: Room %s ended due to disconnection", room.code)
}

// qrHandler generates a PNG QR code for a room invite using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../qr/:code; strip that tail to get the game URL and
	// carry the room code as a query parameter.
	path := strings.TrimSuffix(r.URL.Path, "/qr/"+code)

	url := scheme + "://" + r.Host + path + "?code=" + code

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func serveBingoPage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(newPage("bingobox", "Connect a client to "+cfg.prefix+"/bingo/ws to play.")))
	}
}

// registerBingoGame sets up routes so that:
//   - $path           → landing page
//   - $path/ws        → WebSocket endpoint (create_game / join_game)
//   - $path/qr/:code  → PNG QR code inviting to that room
func registerBingoGame(cfg *Config, path string, mux *httprouter.Router) {
	reg := newRegistry(cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, serveBingoPage(cfg))

	mux.GET(cfg.prefix+path+"/ws", serveBingoWS(cfg, reg))

	mux.GET(cfg.prefix+path+"/qr/:code", qrHandler)
}
