// Package domain defines the core types shared by every spotbot component:
// instruments, candles, indicator snapshots, positions, orders, and the
// collaborator contracts (venue, status publisher).
package domain

// Instrument is a tradable spot pair as listed by the venue. Instances are
// immutable; they are resolved once against the venue listing at startup.
type Instrument struct {
	// ID is the venue's pair identifier, e.g. "BTC-USDT".
	ID string
	// BaseCcy is the asset being bought and sold, e.g. "BTC".
	BaseCcy string
	// QuoteCcy is the currency the pair is priced in, e.g. "USDT".
	QuoteCcy string
	// LotStep is the venue's order-size increment, e.g. "0.0001".
	// Empty means no quantization is required.
	LotStep string
}
