package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefbn/spotbot/internal/domain"
)

func TestHTTPPublisherPostsReport(t *testing.T) {
	var got domain.CycleReport
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewHTTPPublisher(srv.URL)
	report := domain.CycleReport{
		Time:                time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		OpenCount:           3,
		RealizedProfitDelta: 1.25,
		RealizedProfitTotal: 10.5,
	}

	require.NoError(t, p.Publish(context.Background(), report))
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, report, got)
	assert.Equal(t, "dashboard", p.Name())
}

func TestHTTPPublisherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewHTTPPublisher(srv.URL).Publish(context.Background(), domain.CycleReport{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
