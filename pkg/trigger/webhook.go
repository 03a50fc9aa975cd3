package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/pkg/httpclient"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"go.uber.org/zap"
)

// WebhookPayload is the body the CRM automation expects
type WebhookPayload struct {
	Nome    string `json:"nome"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Ramo    string `json:"ramo"`
	Origem  string `json:"origem"`
	Tamanho string `json:"tamanho"`
}

// NewWebhookPayload maps a lead onto the CRM field names
func NewWebhookPayload(lead *models.Lead) WebhookPayload {
	return WebhookPayload{
		Nome:    lead.Name,
		Phone:   lead.Phone,
		Email:   lead.Email,
		Ramo:    lead.AreaOfLaw,
		Origem:  lead.HowHeard,
		Tamanho: lead.NumLawyers,
	}
}

// WebhookNotifier posts leads to an automation webhook (make.com)
type WebhookNotifier struct {
	url    string
	client httpclient.Client
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(url string, client httpclient.Client) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: client}
}

// Name implements Notifier
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Notify implements Notifier
func (n *WebhookNotifier) Notify(ctx context.Context, lead *models.Lead) error {
	start := time.Now()

	resp, err := httpclient.PostJSON(ctx, n.client, n.url, NewWebhookPayload(lead))
	if err != nil {
		logger.LogAPICall(ctx, "lead_webhook", "post", "error", time.Since(start).Seconds(),
			zap.String("lead_id", lead.ID),
			zap.Error(err))
		return fmt.Errorf("failed to call lead webhook: %w", err)
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp); err != nil {
		logger.LogAPICall(ctx, "lead_webhook", "post", "error", time.Since(start).Seconds(),
			zap.String("lead_id", lead.ID),
			zap.Int("status_code", resp.StatusCode))
		return err
	}

	logger.LogAPICall(ctx, "lead_webhook", "post", "success", time.Since(start).Seconds(),
		zap.String("lead_id", lead.ID),
		zap.Int("status_code", resp.StatusCode))
	return nil
}
