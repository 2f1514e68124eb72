package booking

import (
	"context"
	"math/rand"
	"sync"
)

// Reference code shape: 8 symbols drawn independently and
// uniformly from a 36-symbol alphabet, about 2.8e12 possible
// codes.  Collisions are therefore rare but must be handled:
// generation checks the store and retries, and the retry count is
// bounded so a pathological collision rate degrades into a
// retryable error instead of a spin.
const (
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ReferenceLength   = 8
	// MaxReferenceAttempts bounds the uniqueness retry loop.
	MaxReferenceAttempts = 10
)

// ReferenceGenerator produces booking reference codes.  The random
// source is injected so tests can use a fixed seed; access to it
// is serialized because rand.Rand is not safe for concurrent use.
type ReferenceGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewReferenceGenerator builds a generator on top of src.
func NewReferenceGenerator(src rand.Source) *ReferenceGenerator {
	return &ReferenceGenerator{rng: rand.New(src)}
}

// Generate returns one candidate code.  Uniqueness is not checked
// here; use Unique for a collision-checked code.
func (g *ReferenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	buf := make([]byte, ReferenceLength)
	for i := range buf {
		buf[i] = referenceAlphabet[g.rng.Intn(len(referenceAlphabet))]
	}
	return string(buf)
}

// Unique returns a code for which exists reported false, retrying
// up to MaxReferenceAttempts times.  When every attempt collides
// the call fails with a retryable REFERENCE_EXHAUSTED error; the
// loop never runs unbounded.  Errors from exists abort the loop
// immediately.
func (g *ReferenceGenerator) Unique(ctx context.Context, exists func(ctx context.Context, code string) (bool, error)) (string, error) {
	for attempt := 0; attempt < MaxReferenceAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := g.Generate()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", errReferenceExhausted(MaxReferenceAttempts)
}
