// Package ledger holds the set of open positions. The ledger is the only
// shared mutable state in the system: candle fetches may fan out across
// goroutines, but every insert, update, and remove goes through the mutex
// here, and only the entry controller and the risk engine call them.
package ledger

import (
	"sync"

	"github.com/youssefbn/spotbot/internal/domain"
)

// Ledger is a bounded map of instrument ID to open Position.
type Ledger struct {
	mu           sync.RWMutex
	positions    map[string]*domain.Position
	maxPositions int
}

// New creates an empty Ledger bounded to maxPositions entries.
func New(maxPositions int) *Ledger {
	return &Ledger{
		positions:    make(map[string]*domain.Position, maxPositions),
		maxPositions: maxPositions,
	}
}

// Insert adds a freshly opened position. It returns ErrPositionExists when
// the instrument already has one and ErrPositionLimit when the ledger is
// full; in both cases the ledger is unchanged.
func (l *Ledger) Insert(pos *domain.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.positions[pos.Instrument.ID]; ok {
		return domain.ErrPositionExists
	}
	if len(l.positions) >= l.maxPositions {
		return domain.ErrPositionLimit
	}
	l.positions[pos.Instrument.ID] = pos
	return nil
}

// Get returns the open position for the instrument, or ErrNotFound.
func (l *Ledger) Get(instrumentID string) (*domain.Position, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.positions[instrumentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return pos, nil
}

// Has reports whether the instrument has an open position.
func (l *Ledger) Has(instrumentID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.positions[instrumentID]
	return ok
}

// Remove deletes the position for the instrument. It returns ErrNotFound
// when no position is open, so a double remove is loud instead of silent.
func (l *Ledger) Remove(instrumentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.positions[instrumentID]; !ok {
		return domain.ErrNotFound
	}
	delete(l.positions, instrumentID)
	return nil
}

// Len returns the number of open positions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// Open returns the open positions as a slice. The pointers are the live
// positions (the risk engine mutates them); the slice itself is a copy.
func (l *Ledger) Open() []*domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*domain.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, pos)
	}
	return out
}
