package repository

import (
	"context"

	"github.com/maestriajurisp/leads-api/internal/models"
)

// LeadRepository handles lead data access
type LeadRepository struct {
	dataSource LeadDataSource
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(dataSource LeadDataSource) *LeadRepository {
	return &LeadRepository{
		dataSource: dataSource,
	}
}

// Create records a new lead. The lead must already carry its ID.
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	return r.dataSource.CreateLead(ctx, lead)
}

// GetByID retrieves a lead by ID
func (r *LeadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	return r.dataSource.GetLeadByID(ctx, id)
}
