package reminder

import "time"

// DefaultLeadTimes are the reminder tiers, in minutes before the
// appointment start.
var DefaultLeadTimes = []int{60, 30, 10}

// DefaultToleranceMin widens each tier window by a minute on either side
// so a tier still fires when the sweep cadence drifts off the exact
// minute. If the cadence stretches past the full window (~3 minutes) a
// tier is silently missed; missed tiers are skipped, never fired late.
const DefaultToleranceMin = 1

// Schedule is the tier configuration injected into the scheduler.
type Schedule struct {
	LeadTimes    []int
	ToleranceMin int
}

func DefaultSchedule() Schedule {
	return Schedule{LeadTimes: DefaultLeadTimes, ToleranceMin: DefaultToleranceMin}
}

// MinutesUntil returns whole minutes from now until the appointment
// start, both reduced to minutes since midnight. Negative once the
// appointment has started. Candidates are same-day only, so no date
// arithmetic is involved.
func MinutesUntil(appt Appointment, now time.Time) int {
	return appt.StartMinute - (now.Hour()*60 + now.Minute())
}

// DueTiers returns the lead times whose window contains minutesUntil,
// i.e. tier-tolerance <= minutesUntil <= tier+tolerance. A past
// appointment never matches.
func (s Schedule) DueTiers(minutesUntil int) []int {
	if minutesUntil < 0 {
		return nil
	}

	var due []int
	for _, tier := range s.LeadTimes {
		if minutesUntil >= tier-s.ToleranceMin && minutesUntil <= tier+s.ToleranceMin {
			due = append(due, tier)
		}
	}
	return due
}
