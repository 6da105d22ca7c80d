package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/q-up/queue-backend/internal/models"
)

// ErrNoHours is returned when the business has no usable hours entry for the
// requested day: the table is missing, the day is unset, or an entry does not
// parse as "HH:MM".
var ErrNoHours = errors.New("no operating hours configured for today")

// IsOpenNow reports whether now falls within today's configured operating
// window, resolved in the business's local civil time. The window is
// half-open: start <= local < end.
func IsOpenNow(hours models.BusinessHours, timezone string, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return false, fmt.Errorf("failed to resolve timezone %q: %w", timezone, err)
	}

	local := now.In(loc)

	start, end, ok := hours.Window(local.Weekday())
	if !ok {
		return false, ErrNoHours
	}

	startMin, err := parseClock(start)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNoHours, err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNoHours, err)
	}

	localMin := local.Hour()*60 + local.Minute()
	return startMin <= localMin && localMin < endMin, nil
}

// parseClock converts an "HH:MM" string into minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
