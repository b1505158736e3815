// Package event defines the append-only raffle lifecycle journal record.
package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type identifies the type of a raffle event.
type Type string

// Raffle lifecycle events.
const (
	// TypeRaffleOpened records a session being opened.
	TypeRaffleOpened Type = "raffle.opened"
	// TypeRaffleEntered records an accepted entry.
	TypeRaffleEntered Type = "raffle.entered"
	// TypeWinnerRequested records the randomness request issued at session end.
	TypeWinnerRequested Type = "raffle.winner_requested"
	// TypeWinnerPicked records a winner selection and payout.
	TypeWinnerPicked Type = "raffle.winner_picked"
	// TypeRaffleReset records a session ending with zero entries.
	TypeRaffleReset Type = "raffle.reset"
)

var knownTypes = map[Type]struct{}{
	TypeRaffleOpened:    {},
	TypeRaffleEntered:   {},
	TypeWinnerRequested: {},
	TypeWinnerPicked:    {},
	TypeRaffleReset:     {},
}

// Known reports whether t is a journal event type this engine emits.
func Known(t Type) bool {
	_, ok := knownTypes[t]
	return ok
}

// ActorOracle is the actor recorded for oracle-driven events.
const ActorOracle = "oracle"

// Event is an immutable record in the raffle journal.
type Event struct {
	// Seq is the journal sequence number, starting at 1. Assigned by
	// storage on append.
	Seq uint64
	// Hash is the content-addressed identity (SHA-256 truncated to
	// 128 bits). Assigned by storage on append.
	Hash string
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// Actor is the address that triggered the event, or ActorOracle for
	// fulfillment-driven events.
	Actor string
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// ValidateForAppend checks the invariants storage relies on before
// assigning sequence and hash.
func (e Event) ValidateForAppend(now func() time.Time) (Event, error) {
	if !Known(e.Type) {
		return Event{}, fmt.Errorf("unknown event type %q", e.Type)
	}
	if strings.TrimSpace(e.Actor) == "" {
		return Event{}, fmt.Errorf("event actor is required")
	}
	if len(e.PayloadJSON) == 0 {
		return Event{}, fmt.Errorf("event payload is required")
	}
	if e.Seq != 0 {
		return Event{}, fmt.Errorf("event seq is assigned by storage")
	}
	if e.Hash != "" {
		return Event{}, fmt.Errorf("event hash is assigned by storage")
	}
	if e.Timestamp.IsZero() {
		if now == nil {
			now = time.Now
		}
		e.Timestamp = now()
	}
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Millisecond)
	return e, nil
}

// ComputeHash derives the content hash for an event with its sequence
// assigned. The hash covers seq, timestamp, type, actor and payload.
func ComputeHash(e Event) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatUint(e.Seq, 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(e.Timestamp.UTC().UnixMilli(), 10)))
	h.Write([]byte{0})
	h.Write([]byte(e.Type))
	h.Write([]byte{0})
	h.Write([]byte(e.Actor))
	h.Write([]byte{0})
	h.Write(e.PayloadJSON)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
