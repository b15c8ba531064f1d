package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayWindow(t *testing.T) {
	moment := time.Date(2025, 6, 15, 13, 47, 12, 500, time.UTC)

	start, end := DayWindow(moment)

	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 15, 23, 59, 59, 999000000, time.UTC), end)
}

func TestStartOfDay_Identity(t *testing.T) {
	start := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start, StartOfDay(start))
}

func TestIsExpired_Boundary(t *testing.T) {
	target := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	boundary := target.AddDate(1, 0, 0)
	capsule := &Capsule{TargetDeliveryDate: target, Status: CapsuleStatusScheduled}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{
			name: "well inside the grace period",
			now:  target.AddDate(0, 6, 0),
			want: false,
		},
		{
			name: "exactly one year after the target is not expired",
			now:  boundary,
			want: false,
		},
		{
			name: "a microsecond past the boundary is expired",
			now:  boundary.Add(time.Microsecond),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpired(capsule, tt.now))
		})
	}
}

func TestDeliveryDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    time.Time
		wantErr bool
	}{
		{
			name:    "RFC3339 timestamp",
			payload: `"2025-09-01T15:04:05Z"`,
			want:    time.Date(2025, 9, 1, 15, 4, 5, 0, time.UTC),
		},
		{
			name:    "bare date",
			payload: `"2025-09-01"`,
			want:    time.Date(2025, 9, 1, 0, 0, 0, 0, time.Local),
		},
		{
			name:    "garbage is rejected",
			payload: `"next tuesday"`,
			wantErr: true,
		},
		{
			name:    "bare number is rejected",
			payload: `5`,
			wantErr: true,
		},
		{
			name:    "unquoted token is rejected",
			payload: `null`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d DeliveryDate
			err := json.Unmarshal([]byte(tt.payload), &d)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time))
		})
	}
}
