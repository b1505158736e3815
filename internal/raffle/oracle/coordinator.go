package oracle

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Coordinator is the in-process randomness oracle. It accepts requests,
// tracks them until fulfilled, and delivers each fulfillment to the
// registered consumer exactly once.
//
// Tests drive it synchronously through Fulfill or FulfillPending; with
// auto-fulfill enabled it answers each request from its word source on a
// separate goroutine, so RequestRandomWords never blocks on the callback.
type Coordinator struct {
	mu          sync.Mutex
	consumer    Consumer
	pending     map[string]RequestConfig
	words       *WordSource
	autoFulfill bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAutoFulfill makes the coordinator answer each accepted request
// asynchronously from its word source.
func WithAutoFulfill() Option {
	return func(c *Coordinator) {
		c.autoFulfill = true
	}
}

// WithWordSource replaces the word source used for auto and pending
// fulfillment, for deterministic runs.
func WithWordSource(words *WordSource) Option {
	return func(c *Coordinator) {
		c.words = words
	}
}

// NewCoordinator creates a coordinator. The consumer is registered
// separately with SetConsumer since the consumer usually needs the
// coordinator as its client first.
func NewCoordinator(opts ...Option) (*Coordinator, error) {
	c := &Coordinator{pending: map[string]RequestConfig{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.words == nil {
		words, err := NewWordSource()
		if err != nil {
			return nil, err
		}
		c.words = words
	}
	return c, nil
}

// SetConsumer registers the fulfillment consumer.
func (c *Coordinator) SetConsumer(consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumer = consumer
}

// RequestRandomWords accepts a randomness request and returns its id. The
// call never waits for the fulfillment.
func (c *Coordinator) RequestRandomWords(ctx context.Context, cfg RequestConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	c.mu.Lock()
	requestID := uuid.NewString()
	c.pending[requestID] = cfg
	auto := c.autoFulfill
	c.mu.Unlock()

	if auto {
		go func() {
			if err := c.FulfillPending(context.Background(), requestID); err != nil {
				log.Printf("oracle: fulfill request %s: %v", requestID, err)
			}
		}()
	}
	return requestID, nil
}

// Fulfill delivers randomWords for a pending request to the consumer. A
// request id that was never issued, or was already fulfilled, is rejected
// with ErrUnknownRequest before the consumer is invoked.
func (c *Coordinator) Fulfill(ctx context.Context, requestID string, randomWords []*uint256.Int) error {
	c.mu.Lock()
	consumer := c.consumer
	_, ok := c.pending[requestID]
	if ok {
		delete(c.pending, requestID)
	}
	c.mu.Unlock()

	if !ok {
		return ErrUnknownRequest
	}
	if consumer == nil {
		return ErrNoConsumer
	}
	return consumer.FulfillRandomWords(ctx, requestID, randomWords)
}

// FulfillPending fulfills a pending request with words drawn from the
// coordinator's word source, honoring the requested word count.
func (c *Coordinator) FulfillPending(ctx context.Context, requestID string) error {
	c.mu.Lock()
	cfg, ok := c.pending[requestID]
	var words []*uint256.Int
	if ok {
		words = c.words.Words(cfg.NumWords)
	}
	c.mu.Unlock()

	if !ok {
		return ErrUnknownRequest
	}
	return c.Fulfill(ctx, requestID, words)
}

// PendingCount returns the number of requests awaiting fulfillment.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
