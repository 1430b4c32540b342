package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/youssefbn/spotbot/internal/domain"
)

func TestShouldEnter(t *testing.T) {
	e := NewEvaluator(30, 5)

	tests := []struct {
		name        string
		snap        domain.IndicatorSnapshot
		openCount   int
		alreadyOpen bool
		want        bool
	}{
		{
			name:      "all conditions met",
			snap:      domain.IndicatorSnapshot{FastAvg: 110, SlowAvg: 100, Oscillator: 25},
			openCount: 2,
			want:      true,
		},
		{
			name:      "oscillator not oversold",
			snap:      domain.IndicatorSnapshot{FastAvg: 110, SlowAvg: 100, Oscillator: 40},
			openCount: 2,
			want:      false,
		},
		{
			name:      "oscillator exactly at threshold",
			snap:      domain.IndicatorSnapshot{FastAvg: 110, SlowAvg: 100, Oscillator: 30},
			openCount: 0,
			want:      false,
		},
		{
			name:      "downtrend",
			snap:      domain.IndicatorSnapshot{FastAvg: 100, SlowAvg: 110, Oscillator: 25},
			openCount: 0,
			want:      false,
		},
		{
			name:      "trend averages equal",
			snap:      domain.IndicatorSnapshot{FastAvg: 100, SlowAvg: 100, Oscillator: 25},
			openCount: 0,
			want:      false,
		},
		{
			name:      "position limit reached",
			snap:      domain.IndicatorSnapshot{FastAvg: 110, SlowAvg: 100, Oscillator: 25},
			openCount: 5,
			want:      false,
		},
		{
			name:        "instrument already held",
			snap:        domain.IndicatorSnapshot{FastAvg: 110, SlowAvg: 100, Oscillator: 25},
			openCount:   2,
			alreadyOpen: true,
			want:        false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ShouldEnter(tt.snap, tt.openCount, tt.alreadyOpen)
			assert.Equal(t, tt.want, got)
		})
	}
}
