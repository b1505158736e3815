package oracle

import (
	crand "crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/holiman/uint256"
)

// WordSource derives 256-bit words from a SHA-256 hash chain over a seed,
// so a fixed seed replays the same word sequence.
type WordSource struct {
	state [32]byte
}

// NewWordSource creates a word source seeded from crypto/rand.
func NewWordSource() (*WordSource, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("read word source seed: %w", err)
	}
	return NewSeededWordSource(seed), nil
}

// NewSeededWordSource creates a word source with a fixed seed for
// deterministic replays.
func NewSeededWordSource(seed [32]byte) *WordSource {
	return &WordSource{state: sha256.Sum256(seed[:])}
}

// Next returns the next word in the chain.
func (w *WordSource) Next() *uint256.Int {
	word := new(uint256.Int).SetBytes(w.state[:])
	w.state = sha256.Sum256(w.state[:])
	return word
}

// Words returns the next n words in the chain.
func (w *WordSource) Words(n uint32) []*uint256.Int {
	words := make([]*uint256.Int, 0, n)
	for i := uint32(0); i < n; i++ {
		words = append(words, w.Next())
	}
	return words
}
