package util

import (
	"context"
	"testing"
	"time"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *DateParser {
	p := NewDateParser([]string{"ru"}, time.UTC)
	p.now = func() time.Time { return time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestParseDayISO(t *testing.T) {
	day, err := newTestParser().ParseDay("2025-11-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC), day)
}

func TestParseDayRussian(t *testing.T) {
	day, err := newTestParser().ParseDay("28 ноября 2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 28, 0, 0, 0, 0, time.UTC), day)
}

func TestParseDayInvalid(t *testing.T) {
	_, err := newTestParser().ParseDay("когда-нибудь потом")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"10:00", 10 * time.Hour, false},
		{"9", 9 * time.Hour, false},
		{"23:59:30", 23*time.Hour + 59*time.Minute + 30*time.Second, false},
		{"24:00", 0, true},
		{"10:60", 0, true},
		{"ten", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRangeWindowInclusive(t *testing.T) {
	w, err := newTestParser().RangeWindow("2025-11-01", "2025-11-05")
	require.NoError(t, err)

	assert.True(t, w.Contains(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2025, 11, 5, 23, 59, 59, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2025, 11, 5, 23, 59, 59, 999999000, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 10, 31, 23, 59, 59, 0, time.UTC)))
}

func TestRangeWindowOpenEnded(t *testing.T) {
	w, err := newTestParser().RangeWindow("2025-11-01", "")
	require.NoError(t, err)
	assert.True(t, w.HasStart())
	assert.False(t, w.HasEnd())
	assert.True(t, w.Contains(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDayWindow(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2025, 11, 28, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		from, to  string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"whole day", "", "", day, day.Add(24*time.Hour - time.Microsecond)},
		{"clock range", "10:00", "15:00", day.Add(10 * time.Hour), day.Add(15 * time.Hour)},
		{"crosses midnight", "22:00", "02:00", day.Add(22 * time.Hour), day.Add(26 * time.Hour)},
		{"only from", "18:30", "", day.Add(18*time.Hour + 30*time.Minute), day.Add(24*time.Hour - time.Microsecond)},
		{"only to", "", "06:00", day, day.Add(6 * time.Hour)},
		{"malformed falls back", "10:xx", "15:00", day, day.Add(24*time.Hour - time.Microsecond)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := newTestParser().DayWindow(ctx, "2025-11-28", tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, tt.wantEnd, w.End)
		})
	}
}
