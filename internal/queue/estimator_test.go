package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name            string
		position        int
		averageWaitTime int
		onlineStaff     int
		want            float64
	}{
		{"front of queue", 0, 5, 2, 0},
		{"second position", 1, 5, 2, 2.5},
		{"single server", 3, 10, 1, 30},
		{"whole queue as position", 4, 5, 2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Estimate(tt.position, tt.averageWaitTime, tt.onlineStaff)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimate_NoStaffOnline(t *testing.T) {
	_, err := Estimate(2, 5, 0)
	assert.ErrorIs(t, err, ErrNoStaffOnline)

	_, err = Estimate(2, 5, -1)
	assert.ErrorIs(t, err, ErrNoStaffOnline)
}

func TestEstimate_NegativePosition(t *testing.T) {
	_, err := Estimate(-1, 5, 2)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoStaffOnline)
}
