package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type stubSender struct {
	name  string
	err   error
	calls int
}

func (s *stubSender) Send(_ context.Context, _, _ string) error {
	s.calls++
	return s.err
}

func (s *stubSender) Name() string { return s.name }

func TestNotifyDeliversToAllSenders(t *testing.T) {
	a := &stubSender{name: "a"}
	b := &stubSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, quietLogger())

	n.Notify(context.Background(), "title", "message")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestNotifyFailingSenderDoesNotBlockOthers(t *testing.T) {
	a := &stubSender{name: "a", err: errors.New("down")}
	b := &stubSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, quietLogger())

	n.Notify(context.Background(), "title", "message")
	assert.Equal(t, 1, b.calls)
}

func TestNotifyWithNoSendersIsNoop(t *testing.T) {
	n := NewNotifier(nil, quietLogger())
	n.Notify(context.Background(), "title", "message")
}

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := NewTelegramSender("token123", "chat42")
	s.SetAPIBase(srv.URL)

	require.NoError(t, s.Send(context.Background(), "Position opened", "BTC-USDT at 100"))
	assert.Equal(t, "/bottoken123/sendMessage", path)
	assert.Equal(t, "chat42", got["chat_id"])
	assert.Equal(t, "*Position opened*\nBTC-USDT at 100", got["text"])
	assert.Equal(t, "Markdown", got["parse_mode"])
}

func TestTelegramSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewTelegramSender("token", "chat")
	s.SetAPIBase(srv.URL)

	err := s.Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestDiscordSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	require.NoError(t, s.Send(context.Background(), "Position closed", "profit 1.5"))
	assert.Equal(t, "**Position closed**\nprofit 1.5", got["content"])
}
