package repository

import (
	"context"

	"github.com/maestriajurisp/leads-api/internal/database/postgres"
	"github.com/maestriajurisp/leads-api/internal/models"
)

// PostgresLeadDataSource implements LeadDataSource using PostgreSQL
type PostgresLeadDataSource struct {
	client *postgres.Client
}

// NewPostgresLeadDataSource creates a new PostgreSQL lead data source
func NewPostgresLeadDataSource(client *postgres.Client) *PostgresLeadDataSource {
	return &PostgresLeadDataSource{
		client: client,
	}
}

// CreateLead inserts the lead into the leads table
func (ds *PostgresLeadDataSource) CreateLead(ctx context.Context, lead *models.Lead) error {
	return ds.client.CreateLead(ctx, lead)
}

// GetLeadByID fetches a lead from the leads table
func (ds *PostgresLeadDataSource) GetLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	return ds.client.GetLeadByID(ctx, id)
}
