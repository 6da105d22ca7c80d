package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QueueSlot represents one occupied position in a business's waiting line.
// Customer holds the customer's email for regular entries, a synthetic
// "VIP-..." identity for VIP inserts and a walk-in phone number for booth
// entries.
type QueueSlot struct {
	Customer     string    `json:"customer"`
	TicketNumber int       `json:"ticketNumber"`
	Password     string    `json:"password"`
	IsVIP        bool      `json:"isVip"`
	FromBooth    bool      `json:"fromBooth"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// HasAccount reports whether the slot belongs to a registered customer whose
// currentQueue pointer must be maintained alongside the queue document.
func (s QueueSlot) HasAccount() bool {
	return !s.IsVIP && !s.FromBooth
}

// Queue is the authoritative queue state embedded in a business record.
// Slots are kept in service order: index 0 is served next. VIP tickets are
// drawn from their own per-queue series (VIPCounter), independent of the
// regular ticket numbers carried by the slots themselves.
type Queue struct {
	IsActive   bool        `json:"isActive"`
	VIPCounter int         `json:"vipCounter"`
	Slots      []QueueSlot `json:"queueSlots"`
}

// NextTicketNumber returns the ticket number for the next regular entry:
// last slot's ticket + 1, or 0 for an empty queue.
func (q *Queue) NextTicketNumber() int {
	if len(q.Slots) == 0 {
		return 0
	}
	return q.Slots[len(q.Slots)-1].TicketNumber + 1
}

// FindSlot returns the index of the first slot held by the given customer,
// or -1 when the customer holds no slot.
func (q *Queue) FindSlot(customer string) int {
	for i, slot := range q.Slots {
		if slot.Customer == customer {
			return i
		}
	}
	return -1
}

// Value implements driver.Valuer so the queue document is stored as a single
// JSONB column.
func (q Queue) Value() (driver.Value, error) {
	return json.Marshal(q)
}

// Scan implements sql.Scanner for the JSONB queue column.
func (q *Queue) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, q)
	case string:
		return json.Unmarshal([]byte(v), q)
	case nil:
		*q = Queue{}
		return nil
	default:
		return fmt.Errorf("unsupported queue column type %T", src)
	}
}

// BusinessHours holds one open/close pair per weekday as "HH:MM" strings,
// indexed by time.Weekday (0 = Sunday). An empty string marks a day without
// configured hours.
type BusinessHours struct {
	StartTimes []string `json:"startTime"`
	EndTimes   []string `json:"endTime"`
}

// Window returns the [start, end) pair for the given weekday. ok is false
// when the table is missing or the day's entry is absent or malformed.
func (h BusinessHours) Window(day time.Weekday) (start, end string, ok bool) {
	idx := int(day)
	if idx >= len(h.StartTimes) || idx >= len(h.EndTimes) {
		return "", "", false
	}
	start, end = h.StartTimes[idx], h.EndTimes[idx]
	if start == "" || end == "" {
		return "", "", false
	}
	return start, end, true
}

// Value implements driver.Valuer for the JSONB hours column.
func (h BusinessHours) Value() (driver.Value, error) {
	return json.Marshal(h)
}

// Scan implements sql.Scanner for the JSONB hours column.
func (h *BusinessHours) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	case nil:
		*h = BusinessHours{}
		return nil
	default:
		return fmt.Errorf("unsupported hours column type %T", src)
	}
}

// Business represents a business and its embedded queue. Name is the unique
// external identity; all queue operations are keyed by it.
type Business struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	Name            string        `json:"name" db:"name"`
	Timezone        string        `json:"timezone" db:"timezone"`
	AverageWaitTime int           `json:"average_wait_time" db:"average_wait_time"`
	Hours           BusinessHours `json:"hours" db:"hours"`
	Queue           Queue         `json:"queue" db:"queue"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// QueueSnapshot is the staff-facing view of a queue returned by mutating
// operations and the staff queue endpoint. CurrentWaitTime is nil when no
// staff are online (the estimate is undefined, not zero).
type QueueSnapshot struct {
	IsActive        bool        `json:"is_active"`
	QueueLength     int         `json:"queue_length"`
	CurrentWaitTime *float64    `json:"current_wait_time"`
	Slots           []QueueSlot `json:"queue_slots,omitempty"`
}

// SlotInfo is the customer-facing view of their own slot. Position is
// 1-based for display; WaitTime is nil when no staff are online.
type SlotInfo struct {
	TicketNumber int      `json:"ticket_number"`
	Password     string   `json:"password"`
	Position     int      `json:"position"`
	WaitTime     *float64 `json:"wait_time"`
}

// FavouriteQueueInfo summarises one favourite business's queue for the
// customer's favourites listing.
type FavouriteQueueInfo struct {
	IsActive        bool     `json:"is_active"`
	QueueLength     int      `json:"queue_length"`
	CurrentWaitTime *float64 `json:"current_wait_time"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
}
