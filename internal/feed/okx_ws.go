package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/youssefbn/spotbot/internal/domain"
)

const (
	dialTimeout    = 15 * time.Second
	readDeadline   = 30 * time.Second
	reconnectDelay = 2 * time.Second
)

// OKXTickerFeed subscribes to the tickers channel of the OKX public WebSocket
// for a set of instruments and keeps a QuoteBook current. It reconnects with
// a fixed delay on disconnect.
type OKXTickerFeed struct {
	wsURL   string
	instIDs []string
	book    *QuoteBook
	logger  *slog.Logger
}

// NewOKXTickerFeed creates a feed that subscribes to the given instruments.
func NewOKXTickerFeed(wsURL string, instIDs []string, book *QuoteBook, logger *slog.Logger) *OKXTickerFeed {
	return &OKXTickerFeed{
		wsURL:   wsURL,
		instIDs: instIDs,
		book:    book,
		logger:  logger.With(slog.String("component", "okx_ws_feed")),
	}
}

type wsSubscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsSubscribeRequest struct {
	Op   string           `json:"op"`
	Args []wsSubscribeArg `json:"args"`
}

type wsTickerMessage struct {
	Event string `json:"event"`
	Msg   string `json:"msg"`
	Arg   struct {
		Channel string `json:"channel"`
	} `json:"arg"`
	Data []struct {
		InstID string `json:"instId"`
		BidPx  string `json:"bidPx"`
		AskPx  string `json:"askPx"`
		Ts     string `json:"ts"`
	} `json:"data"`
}

// Run connects, subscribes, and pumps quotes into the book until ctx is
// cancelled. Reconnects with backoff on disconnect.
func (f *OKXTickerFeed) Run(ctx context.Context) error {
	if len(f.instIDs) == 0 {
		f.logger.Info("no instruments to subscribe, exiting")
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("ticker feed disconnected, reconnecting", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *OKXTickerFeed) runConnection(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, f.wsURL, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	// Close the connection when ctx ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	args := make([]wsSubscribeArg, 0, len(f.instIDs))
	for _, id := range f.instIDs {
		args = append(args, wsSubscribeArg{Channel: "tickers", InstID: id})
	}
	if err := conn.WriteJSON(wsSubscribeRequest{Op: "subscribe", Args: args}); err != nil {
		return err
	}
	f.logger.Info("ticker feed subscribed", slog.Int("instruments", len(f.instIDs)))

	for {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.handleMessage(raw)
	}
}

func (f *OKXTickerFeed) handleMessage(raw []byte) {
	var msg wsTickerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		f.logger.Debug("unparseable ws message", slog.String("error", err.Error()))
		return
	}
	if msg.Event == "error" {
		f.logger.Warn("ws error event", slog.String("msg", msg.Msg))
		return
	}
	if msg.Arg.Channel != "tickers" {
		return
	}
	for _, d := range msg.Data {
		bid, berr := strconv.ParseFloat(d.BidPx, 64)
		ask, aerr := strconv.ParseFloat(d.AskPx, 64)
		if berr != nil || aerr != nil || bid <= 0 || ask <= 0 {
			continue
		}
		ts := time.Now()
		if ms, err := strconv.ParseInt(d.Ts, 10, 64); err == nil {
			ts = time.UnixMilli(ms)
		}
		f.book.Update(domain.Quote{
			InstrumentID: d.InstID,
			Bid:          bid,
			Ask:          ask,
			Time:         ts,
		})
	}
}
