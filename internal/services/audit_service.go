package services

import (
	"encoding/json"

	"github.com/q-up/queue-backend/internal/database"
	"github.com/q-up/queue-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// AuditService records queue mutation events for later review. Writes are
// fire-and-forget from the caller's point of view: a failed audit insert is
// logged, never surfaced to the customer.
type AuditService struct {
	db      database.DB
	enabled bool
	logger  *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB, enabled bool, logger *logrus.Logger) *AuditService {
	return &AuditService{db: db, enabled: enabled, logger: logger}
}

// QueueEvent represents one audited queue mutation.
type QueueEvent struct {
	BusinessName string
	ActorEmail   string // Empty for booth-originated events
	Action       string // enter, abandon, vip_insert, check_in, activate, deactivate, booth_enter
	TicketNumber *int
	IPAddress    string
	UserAgent    string
	Details      map[string]interface{}
}

// LogQueueEvent persists the event. Device info parsed from the User-Agent
// rides along in the details document.
func (s *AuditService) LogQueueEvent(event QueueEvent) {
	if !s.enabled {
		return
	}

	details := event.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	details["device_info"] = utils.ParseUserAgent(event.UserAgent)

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		s.logger.WithError(err).Warn("failed to serialize audit details")
		detailsJSON = []byte("{}")
	}

	query := `
		INSERT INTO queue_events (business_name, actor_email, action, ticket_number, ip_address, user_agent, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var actor interface{}
	if event.ActorEmail != "" {
		actor = event.ActorEmail
	}

	if _, err := s.db.Exec(query,
		event.BusinessName, actor, event.Action, event.TicketNumber,
		event.IPAddress, event.UserAgent, string(detailsJSON),
	); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":   event.Action,
			"business": event.BusinessName,
		}).Warn("failed to record audit event")
	}
}
