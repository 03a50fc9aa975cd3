package repository

import (
	"context"

	"github.com/maestriajurisp/leads-api/internal/models"
)

// LeadDataSource defines the storage behind the lead repository.
// This allows switching between PostgreSQL and the in-memory store used offline.
type LeadDataSource interface {
	// CreateLead stores a lead and sets its CreatedAt
	CreateLead(ctx context.Context, lead *models.Lead) error

	// GetLeadByID fetches a single lead
	GetLeadByID(ctx context.Context, id string) (*models.Lead, error)
}
