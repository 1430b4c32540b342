// Package okx implements the trading venue interface against the OKX v5
// REST API.
package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/youssefbn/spotbot/internal/config"
	"github.com/youssefbn/spotbot/internal/domain"
)

const defaultHTTPTimeout = 10 * time.Second

// Client talks to the OKX v5 REST API. Public market-data endpoints are
// called unsigned; account and trade endpoints carry the standard OKX
// HMAC signature headers.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	passphrase string
	simulated  bool
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient builds an OKX client from venue configuration.
func NewClient(cfg config.VenueConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		passphrase: cfg.Passphrase,
		simulated:  cfg.Simulated,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger.With(slog.String("component", "okx")),
		now:        time.Now,
	}
}

// ListInstruments returns all live spot instruments quoted in quoteCcy.
func (c *Client) ListInstruments(ctx context.Context, quoteCcy string) ([]domain.Instrument, error) {
	const op = "list instruments"

	var raw []okxInstrument
	if err := c.get(ctx, "/api/v5/public/instruments", url.Values{"instType": {"SPOT"}}, false, &raw); err != nil {
		return nil, domain.NewVenueError(op, err)
	}

	out := make([]domain.Instrument, 0, len(raw))
	for _, in := range raw {
		if in.State != "live" || in.QuoteCcy != quoteCcy {
			continue
		}
		out = append(out, domain.Instrument{
			ID:       in.InstID,
			BaseCcy:  in.BaseCcy,
			QuoteCcy: in.QuoteCcy,
			LotStep:  in.LotSz,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FetchCandles returns up to limit closed candles for inst in ascending
// time order. OKX serves candles newest first, so the response is reversed.
func (c *Client) FetchCandles(ctx context.Context, inst domain.Instrument, timeframe string, limit int) ([]domain.Candle, error) {
	const op = "fetch candles"

	q := url.Values{
		"instId": {inst.ID},
		"bar":    {timeframe},
		"limit":  {strconv.Itoa(limit)},
	}
	var raw [][]string
	if err := c.get(ctx, "/api/v5/market/candles", q, false, &raw); err != nil {
		return nil, domain.NewVenueError(op, err)
	}

	candles := make([]domain.Candle, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		row := raw[i]
		if len(row) < 6 {
			return nil, domain.NewVenueError(op, fmt.Errorf("malformed candle row with %d fields", len(row)))
		}
		candle, err := parseCandle(row)
		if err != nil {
			return nil, domain.NewVenueError(op, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// FetchReferencePrice returns the best ask for buys and the best bid for
// sells of inst.
func (c *Client) FetchReferencePrice(ctx context.Context, inst domain.Instrument, side domain.OrderSide) (float64, error) {
	const op = "fetch reference price"

	var raw []okxTicker
	if err := c.get(ctx, "/api/v5/market/ticker", url.Values{"instId": {inst.ID}}, false, &raw); err != nil {
		return 0, domain.NewVenueError(op, err)
	}
	if len(raw) == 0 {
		return 0, domain.NewVenueError(op, fmt.Errorf("no ticker for %s", inst.ID))
	}

	field := raw[0].AskPx
	if side == domain.OrderSideSell {
		field = raw[0].BidPx
	}
	price, err := strconv.ParseFloat(field, 64)
	if err != nil || price <= 0 {
		return 0, domain.NewVenueError(op, fmt.Errorf("bad price %q for %s", field, inst.ID))
	}
	return price, nil
}

// FetchAvailableBalance returns the free balance of ccy in the trading
// account.
func (c *Client) FetchAvailableBalance(ctx context.Context, ccy string) (float64, error) {
	const op = "fetch balance"

	var raw []okxBalance
	if err := c.get(ctx, "/api/v5/account/balance", url.Values{"ccy": {ccy}}, true, &raw); err != nil {
		return 0, domain.NewVenueError(op, err)
	}
	for _, bal := range raw {
		for _, d := range bal.Details {
			if d.Ccy != ccy {
				continue
			}
			avail, err := strconv.ParseFloat(d.AvailBal, 64)
			if err != nil {
				return 0, domain.NewVenueError(op, fmt.Errorf("bad balance %q for %s", d.AvailBal, ccy))
			}
			return avail, nil
		}
	}
	return 0, nil
}

// SubmitMarketOrder places a market order for quantity of the base currency
// and reads the fill back from the order endpoint.
func (c *Client) SubmitMarketOrder(ctx context.Context, inst domain.Instrument, side domain.OrderSide, quantity float64) (domain.OrderResult, error) {
	const op = "submit market order"

	req := orderRequest{
		InstID:  inst.ID,
		TdMode:  "cash",
		Side:    string(side),
		OrdType: "market",
		Sz:      strconv.FormatFloat(quantity, 'f', -1, 64),
	}
	if side == domain.OrderSideBuy {
		req.TgtCcy = "base_ccy"
	}

	var acks []okxOrderAck
	if err := c.post(ctx, "/api/v5/trade/order", req, &acks); err != nil {
		return domain.OrderResult{}, domain.NewVenueError(op, err)
	}
	if len(acks) == 0 {
		return domain.OrderResult{}, domain.NewVenueError(op, fmt.Errorf("empty order response for %s", inst.ID))
	}
	ack := acks[0]
	if ack.SCode != "0" {
		return domain.OrderResult{}, domain.NewVenueError(op, fmt.Errorf("order rejected: %s %s", ack.SCode, ack.SMsg))
	}

	result := domain.OrderResult{OrderID: ack.OrdID, Quantity: quantity}
	detail, err := c.fetchOrder(ctx, inst.ID, ack.OrdID)
	if err != nil {
		// The order is live even if the fill readback fails. Return the
		// acknowledgement and let the caller fall back to its reference price.
		c.logger.Warn("order fill readback failed",
			slog.String("instrument", inst.ID),
			slog.String("order_id", ack.OrdID),
			slog.String("error", err.Error()))
		return result, nil
	}
	if px, perr := strconv.ParseFloat(detail.AvgPx, 64); perr == nil && px > 0 {
		result.FilledPrice = px
	}
	if sz, serr := strconv.ParseFloat(detail.AccFillSz, 64); serr == nil && sz > 0 {
		result.Quantity = sz
	}
	return result, nil
}

// CancelOpenOrders cancels every resting order on inst.
func (c *Client) CancelOpenOrders(ctx context.Context, inst domain.Instrument) error {
	const op = "cancel open orders"

	var pending []okxPendingOrder
	if err := c.get(ctx, "/api/v5/trade/orders-pending", url.Values{"instId": {inst.ID}}, true, &pending); err != nil {
		return domain.NewVenueError(op, err)
	}
	for _, p := range pending {
		var acks []okxOrderAck
		if err := c.post(ctx, "/api/v5/trade/cancel-order", cancelRequest{InstID: p.InstID, OrdID: p.OrdID}, &acks); err != nil {
			return domain.NewVenueError(op, err)
		}
		if len(acks) > 0 && acks[0].SCode != "0" {
			return domain.NewVenueError(op, fmt.Errorf("cancel rejected: %s %s", acks[0].SCode, acks[0].SMsg))
		}
	}
	return nil
}

func (c *Client) fetchOrder(ctx context.Context, instID, ordID string) (okxOrderDetail, error) {
	var raw []okxOrderDetail
	q := url.Values{"instId": {instID}, "ordId": {ordID}}
	if err := c.get(ctx, "/api/v5/trade/order", q, true, &raw); err != nil {
		return okxOrderDetail{}, err
	}
	if len(raw) == 0 {
		return okxOrderDetail{}, fmt.Errorf("order %s not found", ordID)
	}
	return raw[0], nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, signed bool, out any) error {
	requestPath := path
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestPath, nil)
	if err != nil {
		return err
	}
	if signed {
		c.applyAuth(req, http.MethodGet, requestPath, "")
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyAuth(req, http.MethodPost, path, string(payload))
	return c.do(req, out)
}

func (c *Client) applyAuth(req *http.Request, method, requestPath, body string) {
	ts := isoTimestamp(c.now())
	req.Header.Set("OK-ACCESS-KEY", c.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", sign(c.apiSecret, ts, method, requestPath, body))
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.passphrase)
	if c.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, truncate(raw, 256))
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Code != "0" {
		return fmt.Errorf("api error %s: %s", envelope.Code, envelope.Msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func parseCandle(row []string) (domain.Candle, error) {
	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("bad candle timestamp %q", row[0])
	}
	fields := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("bad candle field %q", row[i+1])
		}
		fields[i] = v
	}
	return domain.Candle{
		Time:   time.UnixMilli(ms).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
