// Package search defines the boundary to the external search-index
// collaborator. The core only promises to hand over a copy of any business
// record whose persisted state changed; keeping the index in sync is the
// collaborator's problem.
package search

import (
	"github.com/q-up/queue-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Indexer receives business records after persistence, fire-and-forget.
// Implementations must tolerate being called concurrently and must never
// block a queue mutation: failures are logged, not surfaced.
type Indexer interface {
	SaveBusiness(business models.Business)
	DeleteBusiness(businessName string)
}

// LogIndexer is the default no-op implementation, it just records what would
// have been synced.
type LogIndexer struct {
	Logger *logrus.Logger
}

// SaveBusiness logs the business that would be (re)indexed.
func (l *LogIndexer) SaveBusiness(business models.Business) {
	l.Logger.WithFields(logrus.Fields{
		"business": business.Name,
		"active":   business.Queue.IsActive,
	}).Debug("search index save skipped (no indexer configured)")
}

// DeleteBusiness logs the business that would be removed from the index.
func (l *LogIndexer) DeleteBusiness(businessName string) {
	l.Logger.WithField("business", businessName).
		Debug("search index delete skipped (no indexer configured)")
}
