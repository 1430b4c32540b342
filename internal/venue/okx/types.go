package okx

import "encoding/json"

// apiResponse is the envelope every OKX v5 endpoint returns.
type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// okxInstrument is one entry of /api/v5/public/instruments.
type okxInstrument struct {
	InstID   string `json:"instId"`
	BaseCcy  string `json:"baseCcy"`
	QuoteCcy string `json:"quoteCcy"`
	LotSz    string `json:"lotSz"`
	State    string `json:"state"`
}

// okxTicker is one entry of /api/v5/market/ticker.
type okxTicker struct {
	InstID string `json:"instId"`
	BidPx  string `json:"bidPx"`
	AskPx  string `json:"askPx"`
	Last   string `json:"last"`
}

// okxBalance mirrors /api/v5/account/balance.
type okxBalance struct {
	Details []struct {
		Ccy      string `json:"ccy"`
		AvailBal string `json:"availBal"`
	} `json:"details"`
}

// orderRequest is the body of /api/v5/trade/order.
type orderRequest struct {
	InstID  string `json:"instId"`
	TdMode  string `json:"tdMode"`
	Side    string `json:"side"`
	OrdType string `json:"ordType"`
	Sz      string `json:"sz"`
	// TgtCcy makes market-buy sizes base-currency quantities instead of the
	// OKX default of quote notional.
	TgtCcy string `json:"tgtCcy,omitempty"`
}

// okxOrderAck is one entry of the order placement response.
type okxOrderAck struct {
	OrdID string `json:"ordId"`
	SCode string `json:"sCode"`
	SMsg  string `json:"sMsg"`
}

// okxOrderDetail is one entry of /api/v5/trade/order.
type okxOrderDetail struct {
	OrdID     string `json:"ordId"`
	State     string `json:"state"`
	AvgPx     string `json:"avgPx"`
	AccFillSz string `json:"accFillSz"`
}

// okxPendingOrder is one entry of /api/v5/trade/orders-pending.
type okxPendingOrder struct {
	InstID string `json:"instId"`
	OrdID  string `json:"ordId"`
}

// cancelRequest is the body of /api/v5/trade/cancel-order.
type cancelRequest struct {
	InstID string `json:"instId"`
	OrdID  string `json:"ordId"`
}
