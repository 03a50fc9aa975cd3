package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maestriajurisp/leads-api/config"
	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/internal/validation"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/maestriajurisp/leads-api/pkg/metrics"
	"github.com/maestriajurisp/leads-api/pkg/phone"
	"github.com/maestriajurisp/leads-api/pkg/retry"
	"github.com/maestriajurisp/leads-api/pkg/tracing"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// User facing submission messages
const (
	MsgEbookSuccess     = "Obrigado, %s! Seus dados foram registrados. Seu download deve iniciar em breve."
	MsgContactSuccess   = "Obrigado, %s! Recebemos sua solicitação e entraremos em contato em breve."
	MsgSideEffectFailed = "Não foi possível registrar seus dados agora. Por favor, tente novamente."
	MsgCaptchaFailed    = "Não foi possível verificar o reCAPTCHA. Por favor, tente novamente."
)

// LeadStore records leads
type LeadStore interface {
	Create(ctx context.Context, lead *models.Lead) error
}

// CaptchaVerifier checks reCAPTCHA tokens
type CaptchaVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token string) error
}

// LeadNotifier fans a recorded lead out to best-effort destinations
type LeadNotifier interface {
	Dispatch(ctx context.Context, lead *models.Lead)
}

// DownloadLinkIssuer creates the gated e-book link for a lead
type DownloadLinkIssuer interface {
	IssueDownloadURL(lead *models.Lead) (string, error)
}

// LeadService runs the server side of the form submission pipeline
type LeadService struct {
	store     LeadStore
	captcha   CaptchaVerifier
	notifier  LeadNotifier
	downloads DownloadLinkIssuer
	sanitizer *bluemonday.Policy

	ebookSchema   *validation.Schema
	contactSchema *validation.Schema

	defaultCountryCode string
	confirmationPath   string
	recordTimeout      time.Duration
	retryConfig        retry.Config
}

// NewLeadService creates a new lead service instance
func NewLeadService(
	cfg *config.Config,
	store LeadStore,
	captcha CaptchaVerifier,
	notifier LeadNotifier,
	downloads DownloadLinkIssuer,
) *LeadService {
	timeout := time.Duration(cfg.Server.SubmissionTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &LeadService{
		store:              store,
		captcha:            captcha,
		notifier:           notifier,
		downloads:          downloads,
		sanitizer:          bluemonday.StrictPolicy(),
		ebookSchema:        validation.NewSchema(validation.FromPolicy(cfg.Forms.EbookPhone)),
		contactSchema:      validation.NewSchema(validation.FromPolicy(cfg.Forms.ContactPhone)),
		defaultCountryCode: cfg.Forms.DefaultCountryCode,
		confirmationPath:   cfg.Server.ContactConfirmationPath,
		recordTimeout:      timeout,
		retryConfig:        retry.DatabaseConfig(),
	}
}

// Schema returns the field schema of a form variant
func (s *LeadService) Schema(variant models.FormVariant) *validation.Schema {
	if variant == models.FormContact {
		return s.contactSchema
	}
	return s.ebookSchema
}

// Options returns the selector values and phone policies shared with clients
func (s *LeadService) Options() models.LeadOptionsResponse {
	phoneOptions := make(map[models.FormVariant]models.PhoneFieldOptions, 2)
	for _, variant := range []models.FormVariant{models.FormEbook, models.FormContact} {
		cfg := s.Schema(variant).Config()
		phoneOptions[variant] = models.PhoneFieldOptions{
			Required:      cfg.PhoneRequired,
			International: cfg.Phone.IsInternational(),
			CountryCode:   cfg.Phone.CountryCode,
		}
	}

	return models.LeadOptionsResponse{
		AreasOfLaw:      models.AreasOfLaw,
		ReferralSources: models.ReferralSources,
		FirmSizes:       models.FirmSizes,
		Phone:           phoneOptions,
	}
}

// SubmitEbookLead handles the e-book download form
func (s *LeadService) SubmitEbookLead(ctx context.Context, payload models.Payload, meta models.RequestMeta) *models.SubmissionResult {
	start := time.Now()
	form := models.FormEbook
	defer observeDuration(form, start)

	if result := s.checkCaptcha(ctx, form, payload); result != nil {
		return result
	}

	req, issues := s.ebookSchema.ValidateEbook(s.prepare(payload, s.ebookSchema))
	if len(issues) > 0 {
		return s.validationFailed(form, payload, issues)
	}

	lead := &models.Lead{
		Form:      form,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     phone.E164(req.Phone, s.ebookSchema.Config().Phone, s.defaultCountryCode),
		AreaOfLaw: req.AreaOfLaw,
	}
	if result := s.record(ctx, lead, meta, payload); result != nil {
		return result
	}

	downloadURL, err := s.downloads.IssueDownloadURL(lead)
	if err != nil {
		// The lead is recorded; the page still offers the public preview
		logger.Error("Failed to issue e-book download link",
			zap.String("lead_id", lead.ID),
			zap.Error(err))
	}

	metrics.LeadFormSubmissions.WithLabelValues(string(form), "success").Inc()
	return &models.SubmissionResult{
		Success:     true,
		Message:     fmt.Sprintf(MsgEbookSuccess, lead.Name),
		LeadID:      lead.ID,
		DownloadURL: downloadURL,
	}
}

// SubmitContactLead handles the contact form
func (s *LeadService) SubmitContactLead(ctx context.Context, payload models.Payload, meta models.RequestMeta) *models.SubmissionResult {
	start := time.Now()
	form := models.FormContact
	defer observeDuration(form, start)

	if result := s.checkCaptcha(ctx, form, payload); result != nil {
		return result
	}

	req, issues := s.contactSchema.ValidateContact(s.prepare(payload, s.contactSchema))
	if len(issues) > 0 {
		return s.validationFailed(form, payload, issues)
	}

	lead := &models.Lead{
		Form:       form,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      phone.E164(req.Phone, s.contactSchema.Config().Phone, s.defaultCountryCode),
		AreaOfLaw:  req.AreaOfLaw,
		HowHeard:   req.HowHeard,
		NumLawyers: req.NumLawyers,
	}
	if result := s.record(ctx, lead, meta, payload); result != nil {
		return result
	}

	metrics.LeadFormSubmissions.WithLabelValues(string(form), "success").Inc()
	return &models.SubmissionResult{
		Success:     true,
		Message:     fmt.Sprintf(MsgContactSuccess, lead.Name),
		LeadID:      lead.ID,
		RedirectURL: s.confirmationPath,
	}
}

func (s *LeadService) checkCaptcha(ctx context.Context, form models.FormVariant, payload models.Payload) *models.SubmissionResult {
	if s.captcha == nil || !s.captcha.Enabled() {
		return nil
	}
	if err := s.captcha.Verify(ctx, strings.TrimSpace(payload.Get(models.FieldRecaptchaToken))); err != nil {
		metrics.LeadFormSubmissions.WithLabelValues(string(form), "captcha_failed").Inc()
		logger.Warn("ReCAPTCHA verification failed", zap.String("form", string(form)), zap.Error(err))
		return &models.SubmissionResult{
			Success: false,
			Message: MsgCaptchaFailed,
			Kind:    models.KindCaptchaFailed,
			Fields:  payload.WithoutSecrets(),
		}
	}
	return nil
}

func (s *LeadService) validationFailed(form models.FormVariant, payload models.Payload, issues validation.Issues) *models.SubmissionResult {
	metrics.LeadFormSubmissions.WithLabelValues(string(form), "validation_failed").Inc()
	logger.Info("Lead form rejected by validation",
		zap.String("form", string(form)),
		zap.Strings("issues", issues.Strings()))

	return &models.SubmissionResult{
		Success: false,
		Message: validation.MsgInvalidDataOnServer,
		Kind:    models.KindValidationFailed,
		Issues:  issues.Strings(),
		Fields:  payload.WithoutSecrets(),
	}
}

// record stores the lead and starts its notifications. A nil result means success.
func (s *LeadService) record(ctx context.Context, lead *models.Lead, meta models.RequestMeta, payload models.Payload) *models.SubmissionResult {
	lead.ID = uuid.NewString()
	lead.ClientIP = meta.ClientIP
	lead.UserAgent = meta.UserAgent

	spanCtx, span := tracing.StartSpan(ctx, "leads.record",
		attribute.String("lead.form", string(lead.Form)),
		attribute.String("lead.id", lead.ID))
	recordCtx, cancel := context.WithTimeout(spanCtx, s.recordTimeout)
	defer cancel()

	err := retry.Do(recordCtx, s.retryConfig, "record_lead", func() error {
		return s.store.Create(recordCtx, lead)
	})
	tracing.EndSpan(span, err)
	if err != nil {
		metrics.LeadFormSubmissions.WithLabelValues(string(lead.Form), "side_effect_failed").Inc()
		logger.Error("Failed to record lead",
			zap.String("form", string(lead.Form)),
			zap.String("lead_id", lead.ID),
			zap.Error(err))
		return &models.SubmissionResult{
			Success: false,
			Message: MsgSideEffectFailed,
			Kind:    models.KindSideEffectFailed,
			Fields:  payload.WithoutSecrets(),
		}
	}

	logger.Info("Lead recorded",
		zap.String("form", string(lead.Form)),
		zap.String("lead_id", lead.ID))

	if s.notifier != nil {
		s.notifier.Dispatch(ctx, lead)
	}
	return nil
}

// prepare returns the values that are validated and then stored as they are:
// the phone in canonical form, free text stripped of markup. Echoed fields
// keep the original input.
func (s *LeadService) prepare(payload models.Payload, schema *validation.Schema) models.Payload {
	prepared := schema.Canonicalize(payload)
	for _, field := range []string{models.FieldName, models.FieldEmail} {
		if value, ok := prepared[field]; ok {
			prepared[field] = s.sanitize(value)
		}
	}
	return prepared
}

// sanitize strips markup from free text. Entities are decoded back so names
// like "D'Ávila" are stored as typed.
func (s *LeadService) sanitize(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func observeDuration(form models.FormVariant, start time.Time) {
	metrics.LeadSubmissionDuration.WithLabelValues(string(form)).Observe(metrics.MeasureDuration(start))
}
