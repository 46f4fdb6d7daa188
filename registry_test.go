package main

import (
	"strings"
	"testing"
)

func TestNewRoomCodeShape(t *testing.T) {
	reg := newRegistry(0)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := reg.newRoomCode()
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q contains %q, outside the alphabet", code, ch)
			}
		}
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Fatalf("only %d distinct codes out of 100", len(seen))
	}
}

func TestNewRoomCodeAvoidsLiveRooms(t *testing.T) {
	reg := newRegistry(0)
	room := reg.create("p1", "alice")

	for i := 0; i < 100; i++ {
		if reg.newRoomCode() == room.code {
			t.Fatal("generated a code colliding with a live room")
		}
	}
}

func TestCreateAndLookup(t *testing.T) {
	reg := newRegistry(0)

	room := reg.create("p1", "alice")
	if room.players[0].Name != "alice" || room.players[0].ConnID != "p1" {
		t.Fatalf("creator not seated at slot 0: %+v", room.players[0])
	}

	byCode, ok := reg.lookupByCode(room.code)
	if !ok || byCode != room {
		t.Fatal("lookupByCode failed for a live room")
	}

	byConn, slot, ok := reg.lookupByConnection("p1")
	if !ok || byConn != room || slot != 0 {
		t.Fatalf("lookupByConnection: room=%v slot=%d ok=%v", byConn != nil, slot, ok)
	}

	if _, ok := reg.lookupByCode("NOSUCH"); ok {
		t.Fatal("lookupByCode found an unknown code")
	}
	if _, _, ok := reg.lookupByConnection("nobody"); ok {
		t.Fatal("lookupByConnection found an unknown connection")
	}
}

func TestJoinRecordsSeat(t *testing.T) {
	reg := newRegistry(0)
	room := reg.create("p1", "alice")

	room.addPlayer(&Player{ConnID: "p2", Name: "bob"})
	reg.join("p2", room.code, 1)

	byConn, slot, ok := reg.lookupByConnection("p2")
	if !ok || byConn != room || slot != 1 {
		t.Fatalf("joiner lookup: room=%v slot=%d ok=%v", byConn != nil, slot, ok)
	}
}

func TestRemoveClearsRoomAndConnections(t *testing.T) {
	reg := newRegistry(0)
	room := reg.create("p1", "alice")
	room.addPlayer(&Player{ConnID: "p2", Name: "bob"})
	reg.join("p2", room.code, 1)

	other := reg.create("p3", "carol")

	reg.remove(room.code)

	if _, ok := reg.lookupByCode(room.code); ok {
		t.Fatal("removed room still resolvable by code")
	}
	for _, connID := range []string{"p1", "p2"} {
		if _, _, ok := reg.lookupByConnection(connID); ok {
			t.Fatalf("connection %s still registered after room removal", connID)
		}
	}

	// Unrelated rooms are untouched.
	if _, ok := reg.lookupByCode(other.code); !ok {
		t.Fatal("removing one room disturbed another")
	}
	if _, _, ok := reg.lookupByConnection("p3"); !ok {
		t.Fatal("removing one room dropped another room's connection")
	}
}
