package history

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// KeyGenerator produces history entry keys.
type KeyGenerator interface {
	NewKey() string
}

// UUIDKeys generates time-sortable UUIDv7 keys.
//
// Thread-safety: UUIDKeys is stateless and safe for concurrent use.
type UUIDKeys struct{}

// NewKey returns a hyphenated UUIDv7. Panics if the random source fails.
func (UUIDKeys) NewKey() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequentialKeys generates "<prefix>1", "<prefix>2", ... for reproducible
// traces.
type SequentialKeys struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialKeys creates a generator. An empty prefix defaults to "k".
func NewSequentialKeys(prefix string) *SequentialKeys {
	if prefix == "" {
		prefix = "k"
	}
	return &SequentialKeys{prefix: prefix}
}

// NewKey returns the next key in sequence.
func (g *SequentialKeys) NewKey() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + strconv.Itoa(g.n)
}
