// Package oracle models the external randomness provider: a fire-and-forget
// request issued at raffle end, answered later by exactly one fulfillment
// callback carrying 256-bit random words.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	// ErrUnknownRequest indicates a fulfillment for a request id that is
	// not pending: never issued, or already fulfilled.
	ErrUnknownRequest = errors.New("unknown or already fulfilled request")
	// ErrNoConsumer indicates no fulfillment consumer is registered.
	ErrNoConsumer = errors.New("no fulfillment consumer registered")
)

// RequestConfig carries the randomness request parameters.
type RequestConfig struct {
	// KeyHash identifies the oracle key lane the request is priced against.
	KeyHash string
	// SubscriptionID identifies the funding subscription.
	SubscriptionID uint64
	// Confirmations is the number of confirmations to wait before fulfilling.
	Confirmations uint16
	// CallbackGasLimit caps the fulfillment callback cost.
	CallbackGasLimit uint32
	// NumWords is the number of random words requested, at least one.
	NumWords uint32
	// NativePayment selects native-token payment when true.
	NativePayment bool
}

// Validate checks the request parameters.
func (c RequestConfig) Validate() error {
	if c.NumWords == 0 {
		return fmt.Errorf("at least one random word must be requested")
	}
	return nil
}

// Client accepts randomness requests. Requests are asynchronous: the
// returned request id correlates the later fulfillment callback.
type Client interface {
	RequestRandomWords(ctx context.Context, cfg RequestConfig) (string, error)
}

// Consumer receives fulfillment callbacks. The oracle invokes it exactly
// once per accepted request, at an unspecified later time.
type Consumer interface {
	FulfillRandomWords(ctx context.Context, requestID string, randomWords []*uint256.Int) error
}
