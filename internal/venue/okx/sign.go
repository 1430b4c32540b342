package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// sign produces the OK-ACCESS-SIGN header value for a request: the
// base64-encoded HMAC-SHA256 of timestamp + method + requestPath + body,
// keyed with the API secret. requestPath must include the query string.
func sign(secret, timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// isoTimestamp formats t the way the OKX signer expects, millisecond
// precision in UTC.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
