package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 540},
		{in: "9:30", want: 570},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "17:30", want: 1050},
		{in: "24:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "09:00junk", wantErr: true},
		{in: "09:30:59", wantErr: true},
		{in: "09", wantErr: true},
		{in: "x9:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:00", TimeOfDay(540).String())
	assert.Equal(t, "17:30", TimeOfDay(1050).String())
	assert.Equal(t, "00:05", TimeOfDay(5).String())
}

func TestTimeOfDayAligned(t *testing.T) {
	assert.True(t, TimeOfDay(540).Aligned(30))
	assert.True(t, TimeOfDay(570).Aligned(30))
	assert.False(t, TimeOfDay(555).Aligned(30))
	assert.False(t, TimeOfDay(540).Aligned(0))
}

func TestTimeOfDayOn(t *testing.T) {
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	got := TimeOfDay(570).On(date)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 30, 0, 0, time.UTC), got)
}

func TestDateOf(t *testing.T) {
	in := time.Date(2026, 9, 7, 15, 42, 11, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), DateOf(in))
	// Normalized dates are usable as map keys regardless of origin.
	assert.Equal(t, DateOf(in), DateOf(in.Add(3*time.Hour)))
}
