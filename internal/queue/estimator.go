package queue

import (
	"errors"
	"fmt"
)

// ErrNoStaffOnline is returned when a wait time is requested while no
// employees are online: the estimate is undefined, not zero or infinite.
var ErrNoStaffOnline = errors.New("no staff online, wait time unavailable")

// Estimate derives the expected wait in minutes for a zero-based queue
// position, given the business's configured minutes-per-service and the
// number of employees currently serving. For the aggregate wait of a whole
// queue, callers pass the queue length as the position.
func Estimate(position, averageWaitTime, onlineStaffCount int) (float64, error) {
	if position < 0 {
		return 0, fmt.Errorf("invalid queue position %d", position)
	}
	if onlineStaffCount <= 0 {
		return 0, ErrNoStaffOnline
	}
	return float64(position) * float64(averageWaitTime) / float64(onlineStaffCount), nil
}
