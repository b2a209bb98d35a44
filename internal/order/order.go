// Package order generates the synthetic transactions behind every simulated
// notification.
package order

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Order is a single synthetic transaction. Immutable once created; ownership
// transfers into the history entry it is delivered with.
type Order struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Items     int     `json:"items"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
	StoreName string  `json:"storeName"`
}

// Amount draw range. The settings UI allows minOrderAmount up to the top of
// this range; Generate clamps rather than rejection-samples so a threshold at
// (or above) the maximum still terminates.
const (
	amountMin = 10.0
	amountMax = 500.0

	itemsMax = 5
)

type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// NewGeneratorWithSource returns a generator with an injected random source
// and clock. Used by tests.
func NewGeneratorWithSource(src rand.Source, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rand.New(src), now: now}
}

// Generate produces a fresh order for the given store.
//
// The amount is drawn uniformly from [lo, 500) where lo is minAmount clamped
// into [10, 500], rounded to two decimals. When minAmount >= 500 the draw
// collapses to exactly 500.00.
func (g *Generator) Generate(storeName string, minAmount float64) Order {
	g.mu.Lock()
	defer g.mu.Unlock()

	lo := minAmount
	if lo < amountMin {
		lo = amountMin
	}
	if lo > amountMax {
		lo = amountMax
	}

	amount := lo + g.rng.Float64()*(amountMax-lo)
	amount = math.Round(amount*100) / 100

	return Order{
		ID:        uuid.NewString(),
		Amount:    amount,
		Items:     g.rng.Intn(itemsMax) + 1,
		Timestamp: g.now().UnixMilli(),
		StoreName: storeName,
	}
}
