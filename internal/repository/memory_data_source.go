package repository

import (
	"context"
	"sync"
	"time"

	"github.com/maestriajurisp/leads-api/internal/models"
	apperrors "github.com/maestriajurisp/leads-api/pkg/errors"
)

// InMemoryLeadDataSource keeps leads in process memory. Used when the
// database is switched off with DB_WORK_OFFLINE.
type InMemoryLeadDataSource struct {
	mu    sync.RWMutex
	leads map[string]models.Lead
}

// NewInMemoryLeadDataSource creates an empty in-memory store
func NewInMemoryLeadDataSource() *InMemoryLeadDataSource {
	return &InMemoryLeadDataSource{
		leads: make(map[string]models.Lead),
	}
}

// CreateLead stores a copy of the lead
func (ds *InMemoryLeadDataSource) CreateLead(ctx context.Context, lead *models.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if lead.ID == "" {
		return apperrors.InvalidInputError("id", "must not be empty")
	}

	lead.CreatedAt = time.Now().UTC()

	ds.mu.Lock()
	ds.leads[lead.ID] = *lead
	ds.mu.Unlock()

	return nil
}

// GetLeadByID returns a copy of a stored lead
func (ds *InMemoryLeadDataSource) GetLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	lead, ok := ds.leads[id]
	if !ok {
		return nil, apperrors.NotFoundError("lead")
	}
	return &lead, nil
}

// Len returns the number of stored leads
func (ds *InMemoryLeadDataSource) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.leads)
}
