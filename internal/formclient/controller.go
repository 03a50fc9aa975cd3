// Package formclient is the client side of the lead forms. A Controller owns
// one form's draft, masks the phone as it is typed, validates locally with the
// same schema the server uses and submits at most one request at a time.
package formclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/internal/validation"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"go.uber.org/zap"
)

// DefaultSubmitTimeout bounds a submission when Options.Timeout is not set
const DefaultSubmitTimeout = 15 * time.Second

const (
	MsgTransportFailed = "Não foi possível enviar o formulário. Verifique sua conexão e tente novamente."
	MsgTimeout         = "O envio está demorando mais que o esperado. Verifique sua conexão e tente novamente."
)

// ErrSubmitInFlight is returned by Submit while a previous submission is pending
var ErrSubmitInFlight = errors.New("submission already in progress")

// TokenSource produces a reCAPTCHA token for each submission
type TokenSource func(ctx context.Context) (string, error)

// Options tunes a Controller
type Options struct {
	Timeout time.Duration
	// Captcha is called once per submission when set
	Captcha TokenSource
}

// Controller drives one form instance
type Controller struct {
	variant   models.FormVariant
	schema    *validation.Schema
	transport Transport
	presenter Presenter
	timeout   time.Duration
	captcha   TokenSource

	mu         sync.Mutex
	draft      map[string]string
	submitting bool
}

// NewController creates a controller with an empty draft
func NewController(variant models.FormVariant, schema *validation.Schema, transport Transport, presenter Presenter, opts Options) *Controller {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &Controller{
		variant:   variant,
		schema:    schema,
		transport: transport,
		presenter: presenter,
		timeout:   timeout,
		captcha:   opts.Captcha,
		draft:     make(map[string]string, len(variant.Fields())),
	}
}

// SetField stores the value of a text or selector field
func (c *Controller) SetField(field, value string) {
	if field == models.FieldPhone {
		c.SetPhone(value)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft[field] = value
}

// SetPhone normalizes a phone keystroke and returns the masked display
func (c *Controller) SetPhone(raw string) string {
	r := c.schema.Config().Phone.Normalize(raw)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft[models.FieldPhone] = r.Value()
	return r.Display
}

// Draft returns a copy of the current field values
func (c *Controller) Draft() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Payload(c.draft).Clone()
}

// Submitting reports whether a submission is pending
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit validates the draft and sends it. A local validation failure is
// shown inline and returned without a network call. Only a success clears
// the draft. While a submission is pending, Submit returns ErrSubmitInFlight
// and does nothing else.
func (c *Controller) Submit(ctx context.Context) (*models.SubmissionResult, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	payload := c.payloadLocked()
	if issues := c.schema.Validate(c.variant, payload); len(issues) > 0 {
		c.mu.Unlock()
		c.presenter.ShowFieldIssues(issues)
		return &models.SubmissionResult{
			Success: false,
			Message: validation.MsgInvalidData,
			Kind:    models.KindValidationFailed,
			Issues:  issues.Strings(),
			Fields:  payload.WithoutSecrets(),
		}, nil
	}
	c.submitting = true
	c.mu.Unlock()

	c.presenter.ShowFieldIssues(nil)
	c.presenter.SetBusy(true)

	result := c.send(ctx, payload)

	c.mu.Lock()
	c.submitting = false
	if result.Success {
		c.draft = make(map[string]string, len(c.variant.Fields()))
	} else {
		c.repopulateLocked(result.Fields)
	}
	c.mu.Unlock()

	c.presenter.SetBusy(false)
	if result.Success {
		c.presenter.ShowSuccess(result)
	} else {
		c.presenter.ShowFailure(result)
	}
	return result, nil
}

func (c *Controller) send(ctx context.Context, payload models.Payload) *models.SubmissionResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.captcha != nil {
		token, err := c.captcha(ctx)
		if err != nil {
			return c.transportFailure(ctx, payload, err)
		}
		payload[models.FieldRecaptchaToken] = token
	}

	result, err := c.transport.Submit(ctx, c.variant, payload)
	if err != nil {
		return c.transportFailure(ctx, payload, err)
	}
	return result
}

func (c *Controller) transportFailure(ctx context.Context, payload models.Payload, err error) *models.SubmissionResult {
	result := &models.SubmissionResult{
		Success: false,
		Message: MsgTransportFailed,
		Kind:    models.KindTransportFailed,
		Fields:  payload.WithoutSecrets(),
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.Message = MsgTimeout
		result.Kind = models.KindTimeout
	}

	logger.Warn("Lead form submission failed",
		zap.String("form", string(c.variant)),
		zap.String("kind", string(result.Kind)),
		zap.Error(err))
	return result
}

// payloadLocked builds the flat payload from the draft, one entry per form field
func (c *Controller) payloadLocked() models.Payload {
	fields := c.variant.Fields()
	payload := make(models.Payload, len(fields)+1)
	for _, field := range fields {
		payload[field] = c.draft[field]
	}
	return payload
}

// repopulateLocked restores the draft from echoed fields. Values the server
// did not echo keep what the user typed.
func (c *Controller) repopulateLocked(fields map[string]string) {
	for _, field := range c.variant.Fields() {
		value, ok := fields[field]
		if !ok {
			continue
		}
		if field == models.FieldPhone {
			value = c.schema.Config().Phone.Normalize(value).Value()
		}
		c.draft[field] = value
	}
}
