package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/maestriajurisp/leads-api/internal/models"
	apperrors "github.com/maestriajurisp/leads-api/pkg/errors"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/maestriajurisp/leads-api/pkg/metrics"
	"go.uber.org/zap"
)

// CreateLead inserts a lead and fills in its CreatedAt from the database
func (c *Client) CreateLead(ctx context.Context, lead *models.Lead) error {
	start := time.Now()
	operation := "createLead"

	query := `
		INSERT INTO leads (id, form, name, email, phone, area_of_law, how_heard, num_lawyers, client_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	var createdAt time.Time
	err := c.db.QueryRow(ctx, query,
		lead.ID,
		string(lead.Form),
		lead.Name,
		lead.Email,
		nilIfEmpty(lead.Phone),
		lead.AreaOfLaw,
		nilIfEmpty(lead.HowHeard),
		nilIfEmpty(lead.NumLawyers),
		nilIfEmpty(lead.ClientIP),
		nilIfEmpty(lead.UserAgent),
	).Scan(&createdAt)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall(ctx, "postgres", operation, "error", duration,
			zap.Error(err),
			zap.String("lead_id", lead.ID))
		return fmt.Errorf("failed to create lead: %w", err)
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall(ctx, "postgres", operation, "success", duration,
		zap.String("lead_id", lead.ID),
		zap.String("form", string(lead.Form)))

	lead.CreatedAt = createdAt
	return nil
}

// GetLeadByID fetches a single lead
func (c *Client) GetLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	start := time.Now()
	operation := "getLeadByID"

	query := `
		SELECT id, form, name, email, phone, area_of_law, how_heard, num_lawyers, created_at
		FROM leads
		WHERE id = $1
	`

	var lead models.Lead
	var form string
	var phone, howHeard, numLawyers *string
	err := c.db.QueryRow(ctx, query, id).Scan(
		&lead.ID,
		&form,
		&lead.Name,
		&lead.Email,
		&phone,
		&lead.AreaOfLaw,
		&howHeard,
		&numLawyers,
		&lead.CreatedAt,
	)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "not_found", duration)
			return nil, apperrors.NotFoundError("lead")
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall(ctx, "postgres", operation, "error", duration,
			zap.Error(err),
			zap.String("lead_id", id))
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	recordMetrics(operation, "success", duration)

	lead.Form = models.FormVariant(form)
	lead.Phone = valueOrEmpty(phone)
	lead.HowHeard = valueOrEmpty(howHeard)
	lead.NumLawyers = valueOrEmpty(numLawyers)
	return &lead, nil
}
