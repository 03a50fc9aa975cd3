package services

import (
	"context"

	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/internal/validation"
)

// LeadServiceInterface defines the interface for lead form submissions
type LeadServiceInterface interface {
	SubmitEbookLead(ctx context.Context, payload models.Payload, meta models.RequestMeta) *models.SubmissionResult
	SubmitContactLead(ctx context.Context, payload models.Payload, meta models.RequestMeta) *models.SubmissionResult
	Options() models.LeadOptionsResponse
	Schema(variant models.FormVariant) *validation.Schema
}

// EbookServiceInterface defines the interface for the gated e-book
type EbookServiceInterface interface {
	Preview() models.EbookPreview
	ResolveDownload(ctx context.Context, token string) (string, error)
}

// Ensure services implement their interfaces
var _ LeadServiceInterface = (*LeadService)(nil)
