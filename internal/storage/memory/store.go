// Package memory provides in-memory storage backends for tests and the
// default run mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/event"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
)

// Store provides in-memory raffle snapshot and event journal storage.
type Store struct {
	mu       sync.Mutex
	snapshot *domain.Raffle
	events   []event.Event
	clock    func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{clock: time.Now}
}

// Put persists the raffle snapshot.
func (s *Store) Put(ctx context.Context, raffle domain.Raffle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneRaffle(raffle)
	s.snapshot = &stored
	return nil
}

// Get fetches the raffle snapshot.
func (s *Store) Get(ctx context.Context) (domain.Raffle, error) {
	if err := ctx.Err(); err != nil {
		return domain.Raffle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return domain.Raffle{}, storage.ErrNotFound
	}
	return cloneRaffle(*s.snapshot), nil
}

// AppendEvent appends an event to the journal, assigning seq and hash.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	validated, err := evt.ValidateForAppend(s.clock)
	if err != nil {
		return event.Event{}, err
	}
	validated.Seq = uint64(len(s.events)) + 1
	validated.Hash = event.ComputeHash(validated)
	s.events = append(s.events, validated)
	return validated, nil
}

// ListEvents returns all journal events in sequence order.
func (s *Store) ListEvents(ctx context.Context) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

func cloneRaffle(r domain.Raffle) domain.Raffle {
	if r.EntranceFee != nil {
		r.EntranceFee = r.EntranceFee.Clone()
	}
	if r.Players != nil {
		players := make([]domain.Address, len(r.Players))
		copy(players, r.Players)
		r.Players = players
	}
	if r.PreviousSessionPlayers != nil {
		previous := make([]domain.Address, len(r.PreviousSessionPlayers))
		copy(previous, r.PreviousSessionPlayers)
		r.PreviousSessionPlayers = previous
	}
	return r
}
