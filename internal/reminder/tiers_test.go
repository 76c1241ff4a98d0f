package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDueTiers_ToleranceWindow(t *testing.T) {
	schedule := DefaultSchedule()

	tests := []struct {
		name         string
		minutesUntil int
		want         []int
	}{
		{"just outside upper bound", 62, nil},
		{"upper tolerance edge", 61, []int{60}},
		{"exact 60", 60, []int{60}},
		{"lower tolerance edge", 59, []int{60}},
		{"just outside lower bound", 58, nil},
		{"exact 30", 30, []int{30}},
		{"exact 10", 10, []int{10}},
		{"upper edge of 10", 11, []int{10}},
		{"between tiers", 45, nil},
		{"far in the future", 300, nil},
		{"starting now", 0, nil},
		{"already started", -5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.DueTiers(tt.minutesUntil))
		})
	}
}

func TestDueTiers_NegativeNeverMatches(t *testing.T) {
	// Even a synthetic zero-minute tier with tolerance must not fire for
	// an appointment that already started.
	schedule := Schedule{LeadTimes: []int{0}, ToleranceMin: 1}
	assert.Empty(t, schedule.DueTiers(-1))
}

func TestDueTiers_SyntheticSchedule(t *testing.T) {
	schedule := Schedule{LeadTimes: []int{5}, ToleranceMin: 0}

	assert.Empty(t, schedule.DueTiers(4))
	assert.Equal(t, []int{5}, schedule.DueTiers(5))
	assert.Empty(t, schedule.DueTiers(6))
}

func TestMinutesUntil_WholeMinutes(t *testing.T) {
	appt := Appointment{StartMinute: 14*60 + 30} // 14:30

	// Seconds are dropped on both sides, so 13:30:30 is still exactly 60
	// minutes out.
	now := time.Date(2026, 8, 31, 13, 30, 30, 0, time.UTC)
	assert.Equal(t, 60, MinutesUntil(appt, now))

	assert.Equal(t, 0, MinutesUntil(appt, time.Date(2026, 8, 31, 14, 30, 59, 0, time.UTC)))
	assert.Equal(t, -10, MinutesUntil(appt, time.Date(2026, 8, 31, 14, 40, 0, 0, time.UTC)))
	assert.Equal(t, 870, MinutesUntil(appt, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
}
