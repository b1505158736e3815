package service

import (
	"github.com/holiman/uint256"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
)

// Read-only accessors. None of them mutates state; they lock only to
// observe a consistent raffle.

// Owner returns the owner of the current session, empty when none.
func (s *Service) Owner() domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raffle.Owner
}

// PreviousOwner returns the owner of the last completed payout cycle.
func (s *Service) PreviousOwner() domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raffle.PreviousOwner
}

// EntranceFee returns the current entrance fee.
func (s *Service) EntranceFee() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raffle.EntranceFee.Clone()
}

// RaffleState returns the lifecycle state.
func (s *Service) RaffleState() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raffle.State
}

// Player returns the entry at index i of the current session.
func (s *Service) Player(i int) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raffle.Player(i)
}

// PlayerFromPreviousSession returns the entry at index i of the last
// session snapshot.
func (s *Service) PlayerFromPreviousSession(i int) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raffle.PlayerFromPreviousSession(i)
}

// PlayersCount returns the number of entries in the current session.
func (s *Service) PlayersCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raffle.PlayersCount()
}

// RecentWinner returns the last selected winner.
func (s *Service) RecentWinner() domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raffle.RecentWinner
}

// PendingRequestID returns the outstanding randomness request id, empty
// when no draw is pending.
func (s *Service) PendingRequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raffle.PendingRequestID
}

// Snapshot returns a copy of the full raffle state for read surfaces.
func (s *Service) Snapshot() domain.Raffle {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := *s.raffle
	snapshot.EntranceFee = s.raffle.EntranceFee.Clone()
	snapshot.Players = append([]domain.Address(nil), s.raffle.Players...)
	snapshot.PreviousSessionPlayers = append([]domain.Address(nil), s.raffle.PreviousSessionPlayers...)
	return snapshot
}
