package history

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/routesync/internal/ir"
)

// Memory is an in-memory History.
//
// Thread-safety: the stack is guarded by a mutex that is never held while
// hooks or listeners run, so callbacks may navigate re-entrantly. Ordering
// across goroutines is not defined; drive a Memory from one goroutine.
type Memory struct {
	mu        sync.Mutex
	entries   []ir.Location
	index     int
	version   uint64
	listeners []*callback[func(ir.Location)]
	hooks     []*callback[func(ir.Location) error]

	keys           KeyGenerator
	notifyOnListen bool
	logger         *slog.Logger
}

type callback[F any] struct {
	fn     F
	active atomic.Bool
}

type memoryConfig struct {
	paths          []string
	index          int
	keys           KeyGenerator
	notifyOnListen bool
	logger         *slog.Logger
}

// MemoryOption configures a Memory.
type MemoryOption func(*memoryConfig)

// WithInitialEntries seeds the stack. Defaults to a single "/" entry.
func WithInitialEntries(paths ...string) MemoryOption {
	return func(c *memoryConfig) {
		c.paths = paths
	}
}

// WithInitialIndex selects the current entry. A negative index selects the
// last entry, which is also the default; larger values are clamped.
func WithInitialIndex(i int) MemoryOption {
	return func(c *memoryConfig) {
		c.index = i
	}
}

// WithKeys sets the entry key generator. Defaults to UUIDKeys.
func WithKeys(g KeyGenerator) MemoryOption {
	return func(c *memoryConfig) {
		c.keys = g
	}
}

// WithNotifyOnListen controls whether Listen calls the new listener with
// the current location before returning. Defaults to true.
func WithNotifyOnListen(notify bool) MemoryOption {
	return func(c *memoryConfig) {
		c.notifyOnListen = notify
	}
}

// WithLogger sets the logger for blocked and superseded transitions.
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(c *memoryConfig) {
		c.logger = logger
	}
}

// NewMemory creates a Memory history.
func NewMemory(opts ...MemoryOption) *Memory {
	cfg := memoryConfig{
		paths:          []string{"/"},
		index:          -1,
		keys:           UUIDKeys{},
		notifyOnListen: true,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.paths) == 0 {
		cfg.paths = []string{"/"}
	}

	m := &Memory{
		keys:           cfg.keys,
		notifyOnListen: cfg.notifyOnListen,
		logger:         cfg.logger,
	}
	for _, p := range cfg.paths {
		loc := ir.ParsePath(p).WithKey(m.keys.NewKey()).WithAction(ir.ActionPop)
		m.entries = append(m.entries, loc)
	}
	m.index = min(max(cfg.index, 0), len(m.entries)-1)
	if cfg.index < 0 {
		m.index = len(m.entries) - 1
	}
	return m
}

// Location returns the current entry.
func (m *Memory) Location() ir.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Entries returns a copy of the stack.
func (m *Memory) Entries() []ir.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Index returns the position of the current entry.
func (m *Memory) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// CreatePath implements History.
func (m *Memory) CreatePath(loc ir.Location) string {
	return CreatePath(loc)
}

// Listen implements History.
func (m *Memory) Listen(listener func(ir.Location)) func() {
	cb := &callback[func(ir.Location)]{fn: listener}
	cb.active.Store(true)

	m.mu.Lock()
	m.listeners = append(m.listeners, cb)
	current := m.entries[m.index]
	m.mu.Unlock()

	if m.notifyOnListen {
		listener(current)
	}

	return func() {
		cb.active.Store(false)
		m.mu.Lock()
		defer m.mu.Unlock()
		m.listeners = slices.DeleteFunc(m.listeners, func(c *callback[func(ir.Location)]) bool {
			return c == cb
		})
	}
}

// ListenBefore implements BeforeListener.
func (m *Memory) ListenBefore(hook func(ir.Location) error) func() {
	cb := &callback[func(ir.Location) error]{fn: hook}
	cb.active.Store(true)

	m.mu.Lock()
	m.hooks = append(m.hooks, cb)
	m.mu.Unlock()

	return func() {
		cb.active.Store(false)
		m.mu.Lock()
		defer m.mu.Unlock()
		m.hooks = slices.DeleteFunc(m.hooks, func(c *callback[func(ir.Location) error]) bool {
			return c == cb
		})
	}
}

// Push adds loc as a new entry after the current one, discarding any
// forward entries. The stored entry gets a fresh key.
func (m *Memory) Push(loc ir.Location) error {
	next := loc.WithKey(m.keys.NewKey()).WithAction(ir.ActionPush)
	return m.transition(next, func() error {
		m.entries = append(m.entries[:m.index+1], next)
		m.index++
		return nil
	})
}

// Replace overwrites the current entry with loc under a fresh key.
func (m *Memory) Replace(loc ir.Location) error {
	next := loc.WithKey(m.keys.NewKey()).WithAction(ir.ActionReplace)
	return m.transition(next, func() error {
		m.entries[m.index] = next
		return nil
	})
}

// Go moves n entries through the stack. Go(0) is a no-op.
func (m *Memory) Go(n int) error {
	if n == 0 {
		return nil
	}

	m.mu.Lock()
	target := m.index + n
	if target < 0 || target >= len(m.entries) {
		size, index := len(m.entries), m.index
		m.mu.Unlock()
		return fmt.Errorf("%w: %+d from entry %d of %d", ErrOutOfRange, n, index, size)
	}
	next := m.entries[target].WithAction(ir.ActionPop)
	m.mu.Unlock()

	return m.transition(next, func() error {
		if target >= len(m.entries) {
			return fmt.Errorf("%w: entry %d no longer exists", ErrOutOfRange, target)
		}
		m.entries[target] = next
		m.index = target
		return nil
	})
}

// GoBack is Go(-1).
func (m *Memory) GoBack() error { return m.Go(-1) }

// GoForward is Go(1).
func (m *Memory) GoForward() error { return m.Go(1) }

// transition runs hooks, applies the change and notifies listeners.
//
// A transition is superseded when another one is applied while it is in
// flight (a hook or listener navigated re-entrantly). A superseded
// transition is not applied, and listeners stop receiving its location.
func (m *Memory) transition(next ir.Location, apply func() error) error {
	m.mu.Lock()
	start := m.version
	hooks := slices.Clone(m.hooks)
	m.mu.Unlock()

	for _, h := range hooks {
		if !h.active.Load() {
			continue
		}
		if err := h.fn(next); err != nil {
			m.logger.Debug("transition blocked", "path", next.Path(), "action", next.Action, "error", err)
			return fmt.Errorf("%w: %w", ErrBlocked, err)
		}
		if m.currentVersion() != start {
			m.logger.Debug("transition superseded", "path", next.Path(), "action", next.Action)
			return nil
		}
	}

	m.mu.Lock()
	if m.version != start {
		m.mu.Unlock()
		m.logger.Debug("transition superseded", "path", next.Path(), "action", next.Action)
		return nil
	}
	if err := apply(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.version++
	applied := m.version
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		if m.currentVersion() != applied {
			break
		}
		if l.active.Load() {
			l.fn(next)
		}
	}
	return nil
}

func (m *Memory) currentVersion() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

var (
	_ History        = (*Memory)(nil)
	_ BeforeListener = (*Memory)(nil)
	_ Locator        = (*Memory)(nil)
)
