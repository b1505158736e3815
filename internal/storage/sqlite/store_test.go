package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/event"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
)

const (
	addrA = domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	addrB = domain.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "raffle.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.Get(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get on empty store = %v, want ErrNotFound", err)
	}

	raffle := domain.Raffle{
		Owner:            addrA,
		EntranceFee:      uint256.NewInt(1_000_000),
		State:            domain.StateOpen,
		Players:          []domain.Address{addrB, addrB},
		RecentWinner:     addrB,
		PendingRequestID: "req-9",
	}
	if err := store.Put(ctx, raffle); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Owner != addrA || got.State != domain.StateOpen {
		t.Fatalf("snapshot mismatch: %+v", got)
	}
	if got.EntranceFee.Uint64() != 1_000_000 {
		t.Fatalf("entrance fee = %d, want 1000000", got.EntranceFee.Uint64())
	}
	if len(got.Players) != 2 || got.Players[0] != addrB {
		t.Fatalf("players mismatch: %v", got.Players)
	}
	if got.PendingRequestID != "req-9" {
		t.Fatalf("pending request id = %q", got.PendingRequestID)
	}
}

func TestPutReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Put(ctx, domain.Raffle{Owner: addrA, EntranceFee: uint256.NewInt(1)}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := store.Put(ctx, domain.Raffle{Owner: addrB, EntranceFee: uint256.NewInt(2)}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Owner != addrB {
		t.Fatalf("owner = %q, want latest snapshot", got.Owner)
	}
}

func TestAppendEventAssignsSequentialSeqAndHash(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	seen := map[string]struct{}{}
	for i := 1; i <= 3; i++ {
		stored, err := store.AppendEvent(ctx, event.Event{
			Type:        event.TypeRaffleEntered,
			Actor:       addrB.String(),
			PayloadJSON: []byte(`{"player":"0xbb","payment":"10"}`),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if stored.Seq != uint64(i) {
			t.Fatalf("seq = %d, want %d", stored.Seq, i)
		}
		if _, dup := seen[stored.Hash]; dup {
			t.Fatalf("duplicate hash %q", stored.Hash)
		}
		seen[stored.Hash] = struct{}{}
	}
}

func TestAppendEventRejectsInvalidEvent(t *testing.T) {
	store := openTestStore(t)
	_, err := store.AppendEvent(context.Background(), event.Event{
		Type:  event.TypeRaffleOpened,
		Actor: addrA.String(),
	})
	if err == nil {
		t.Fatal("expected validation error for missing payload")
	}
}

func TestListEventsSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "raffle.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.AppendEvent(ctx, event.Event{
		Type:        event.TypeRaffleOpened,
		Actor:       addrA.String(),
		PayloadJSON: []byte(`{"owner":"0xaa","entrance_fee":"5"}`),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	events, err := reopened.ListEvents(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Type != event.TypeRaffleOpened {
		t.Fatalf("event type = %q", events[0].Type)
	}
	if events[0].Timestamp.IsZero() {
		t.Fatal("timestamp not persisted")
	}
}
