// Package feed streams best bid/ask quotes from the OKX public WebSocket and
// serves them to the scan loop as a low-latency reference-price source.
package feed

import (
	"sync"
	"time"

	"github.com/youssefbn/spotbot/internal/domain"
)

// QuoteBook holds the latest quote per instrument.
type QuoteBook struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
}

func NewQuoteBook() *QuoteBook {
	return &QuoteBook{quotes: make(map[string]domain.Quote)}
}

// Update stores the quote, replacing any previous one for the instrument.
func (b *QuoteBook) Update(q domain.Quote) {
	b.mu.Lock()
	b.quotes[q.InstrumentID] = q
	b.mu.Unlock()
}

// Get returns the latest quote for instID if one is no older than maxAge.
func (b *QuoteBook) Get(instID string, maxAge time.Duration) (domain.Quote, bool) {
	b.mu.RLock()
	q, ok := b.quotes[instID]
	b.mu.RUnlock()
	if !ok || time.Since(q.Time) > maxAge {
		return domain.Quote{}, false
	}
	return q, true
}
