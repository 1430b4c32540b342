package feed

import (
	"context"
	"time"

	"github.com/youssefbn/spotbot/internal/domain"
)

// QuotedVenue wraps a venue and answers reference-price lookups from the
// quote book when a fresh quote exists, falling back to the venue's REST
// ticker otherwise. All other venue calls pass through.
type QuotedVenue struct {
	domain.Venue
	book   *QuoteBook
	maxAge time.Duration
}

// NewQuotedVenue decorates venue with quote-book reference prices.
func NewQuotedVenue(venue domain.Venue, book *QuoteBook, maxAge time.Duration) *QuotedVenue {
	return &QuotedVenue{Venue: venue, book: book, maxAge: maxAge}
}

func (v *QuotedVenue) FetchReferencePrice(ctx context.Context, inst domain.Instrument, side domain.OrderSide) (float64, error) {
	if q, ok := v.book.Get(inst.ID, v.maxAge); ok {
		if side == domain.OrderSideSell {
			return q.Bid, nil
		}
		return q.Ask, nil
	}
	return v.Venue.FetchReferencePrice(ctx, inst, side)
}
