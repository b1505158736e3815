// Package service wires the raffle state machine to the oracle, the payout
// engine, the ledger and the journal, and serializes every operation.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/event"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/oracle"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/payout"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
)

// Draw request parameters fixed by the protocol: one random word after
// three confirmations.
const (
	drawConfirmations = 3
	drawNumWords      = 1
)

// Params collects the service dependencies.
type Params struct {
	// Raffle is the restored state, nil for a fresh raffle.
	Raffle *domain.Raffle
	// Oracle accepts randomness requests.
	Oracle oracle.Client
	// Payout settles finished sessions.
	Payout *payout.Engine
	// Ledger tracks balances; entries move funds player to pool here.
	Ledger storage.Ledger
	// Events is the journal.
	Events storage.EventStore
	// Snapshots persists the raffle state after each accepted mutation.
	Snapshots storage.RaffleStore
	// Pool is the account holding the pooled entrance payments.
	Pool domain.Address
	// KeyHash, SubscriptionID and CallbackGasLimit parameterize the
	// randomness requests issued at session end.
	KeyHash          string
	SubscriptionID   uint64
	CallbackGasLimit uint32
}

// Service owns the singleton raffle. All operations, reads included, are
// serialized behind one mutex: the reference execution environment
// processes one transaction at a time and no interleaving is ever valid.
type Service struct {
	mu     sync.Mutex
	raffle *domain.Raffle

	oracle    oracle.Client
	payout    *payout.Engine
	ledger    storage.Ledger
	events    storage.EventStore
	snapshots storage.RaffleStore

	pool             domain.Address
	keyHash          string
	subscriptionID   uint64
	callbackGasLimit uint32

	tracer trace.Tracer
}

// NewService creates a raffle service.
func NewService(p Params) (*Service, error) {
	if p.Oracle == nil {
		return nil, fmt.Errorf("oracle client is required")
	}
	if p.Payout == nil {
		return nil, fmt.Errorf("payout engine is required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if p.Events == nil {
		return nil, fmt.Errorf("event store is required")
	}
	if p.Snapshots == nil {
		return nil, fmt.Errorf("raffle store is required")
	}
	if p.Pool == "" {
		return nil, fmt.Errorf("pool address is required")
	}

	raffle := p.Raffle
	if raffle == nil {
		raffle = domain.NewRaffle()
	}

	return &Service{
		raffle:           raffle,
		oracle:           p.Oracle,
		payout:           p.Payout,
		ledger:           p.Ledger,
		events:           p.Events,
		snapshots:        p.Snapshots,
		pool:             p.Pool,
		keyHash:          p.KeyHash,
		subscriptionID:   p.SubscriptionID,
		callbackGasLimit: p.CallbackGasLimit,
		tracer:           otel.Tracer("raffle-engine/service"),
	}, nil
}

// Open starts a new raffle session owned by caller.
func (s *Service) Open(ctx context.Context, caller domain.Address, fee *uint256.Int) error {
	ctx, span := s.tracer.Start(ctx, "raffle.open")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.raffle.Open(caller, fee); err != nil {
		return err
	}
	span.SetAttributes(attribute.String("raffle.owner", caller.String()))

	if err := s.record(ctx, event.TypeRaffleOpened, caller.String(), event.RaffleOpenedPayload{
		Owner:       caller.String(),
		EntranceFee: s.raffle.EntranceFee.Dec(),
	}); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Enter registers player for the current session, moving the attached
// payment into the pool account.
func (s *Service) Enter(ctx context.Context, player domain.Address, payment *uint256.Int) error {
	ctx, span := s.tracer.Start(ctx, "raffle.enter")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if payment == nil {
		payment = uint256.NewInt(0)
	}
	if err := s.raffle.CheckEnter(player, payment); err != nil {
		return err
	}
	if err := s.ledger.Transfer(ctx, player, s.pool, payment); err != nil {
		return fmt.Errorf("collect entrance payment: %w", err)
	}
	// Checks already passed, the append cannot fail now.
	if err := s.raffle.Enter(player, payment); err != nil {
		return err
	}

	if err := s.record(ctx, event.TypeRaffleEntered, player.String(), event.RaffleEnteredPayload{
		Player:  player.String(),
		Payment: payment.Dec(),
	}); err != nil {
		return err
	}
	return s.persist(ctx)
}

// End closes the current session. With at least one player it issues
// exactly one randomness request and returns its id; the call never waits
// for the fulfillment. With zero players the session resets immediately and
// the returned request id is empty.
func (s *Service) End(ctx context.Context, caller domain.Address) (string, error) {
	ctx, span := s.tracer.Start(ctx, "raffle.end")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	drawPending, err := s.raffle.CheckEnd(caller)
	if err != nil {
		return "", err
	}

	if !drawPending {
		if _, err := s.raffle.End(caller); err != nil {
			return "", err
		}
		if err := s.record(ctx, event.TypeRaffleReset, caller.String(), event.RaffleResetPayload{
			Owner: caller.String(),
		}); err != nil {
			return "", err
		}
		return "", s.persist(ctx)
	}

	requestID, err := s.oracle.RequestRandomWords(ctx, oracle.RequestConfig{
		KeyHash:          s.keyHash,
		SubscriptionID:   s.subscriptionID,
		Confirmations:    drawConfirmations,
		CallbackGasLimit: s.callbackGasLimit,
		NumWords:         drawNumWords,
		NativePayment:    false,
	})
	if err != nil {
		return "", fmt.Errorf("request randomness: %w", err)
	}
	span.SetAttributes(attribute.String("raffle.request_id", requestID))

	if _, err := s.raffle.End(caller); err != nil {
		return "", err
	}
	s.raffle.RecordDrawRequest(requestID)

	if err := s.record(ctx, event.TypeWinnerRequested, caller.String(), event.WinnerRequestedPayload{
		RequestID:   requestID,
		PlayerCount: s.raffle.PlayersCount(),
	}); err != nil {
		return "", err
	}
	return requestID, s.persist(ctx)
}

// FulfillRandomWords is the oracle fulfillment callback. It picks the
// winner, settles the payout and finalizes the session.
//
// When the owner-fee transfer fails nothing is committed and the raffle
// stays pending. Under the partial-commit policy a winner-transfer failure
// after a committed owner fee still finalizes the draw; the undelivered
// remainder stays in the pool account and the error is returned.
func (s *Service) FulfillRandomWords(ctx context.Context, requestID string, randomWords []*uint256.Int) error {
	ctx, span := s.tracer.Start(ctx, "raffle.fulfill")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	draw, err := s.raffle.PickWinner(requestID, randomWords)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("raffle.winner", draw.Winner.String()))

	receipt, distributeErr := s.payout.Distribute(ctx, s.pool, s.raffle.Owner, draw.Winner)
	if distributeErr != nil && !receipt.OwnerFeeCommitted {
		return distributeErr
	}

	winnerAmount := "0"
	if receipt.WinnerAmount != nil {
		winnerAmount = receipt.WinnerAmount.Dec()
	}

	s.raffle.FinalizeDraw(draw)

	// Keep a partial-commit transfer failure visible even when the journal
	// or snapshot write fails afterwards.
	if err := s.record(ctx, event.TypeWinnerPicked, event.ActorOracle, event.WinnerPickedPayload{
		Winner:       draw.Winner.String(),
		RequestID:    requestID,
		OwnerFee:     receipt.OwnerFee.Dec(),
		WinnerAmount: winnerAmount,
	}); err != nil {
		return errors.Join(distributeErr, err)
	}
	if err := s.persist(ctx); err != nil {
		return errors.Join(distributeErr, err)
	}
	return distributeErr
}

// Fund credits amount to addr on the ledger, the simulation faucet.
func (s *Service) Fund(ctx context.Context, addr domain.Address, amount *uint256.Int) error {
	return s.ledger.Deposit(ctx, addr, amount)
}

// Balance returns the ledger balance of addr.
func (s *Service) Balance(ctx context.Context, addr domain.Address) (*uint256.Int, error) {
	return s.ledger.Balance(ctx, addr)
}

// Events returns the full journal in sequence order.
func (s *Service) Events(ctx context.Context) ([]event.Event, error) {
	return s.events.ListEvents(ctx)
}

func (s *Service) record(ctx context.Context, eventType event.Type, actor string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	if _, err := s.events.AppendEvent(ctx, event.Event{
		Type:        eventType,
		Actor:       actor,
		PayloadJSON: payloadJSON,
	}); err != nil {
		return fmt.Errorf("append %s event: %w", eventType, err)
	}
	return nil
}

func (s *Service) persist(ctx context.Context) error {
	if err := s.snapshots.Put(ctx, *s.raffle); err != nil {
		return fmt.Errorf("persist raffle snapshot: %w", err)
	}
	return nil
}
