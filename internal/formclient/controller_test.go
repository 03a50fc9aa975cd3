package formclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/internal/validation"
	"github.com/maestriajurisp/leads-api/pkg/phone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers with a canned result or blocks until released
type fakeTransport struct {
	calls    atomic.Int32
	started  chan struct{}
	release  chan struct{}
	result   *models.SubmissionResult
	err      error
	payloads []models.Payload
	mu       sync.Mutex
}

func (f *fakeTransport) Submit(ctx context.Context, variant models.FormVariant, payload models.Payload) (*models.SubmissionResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeTransport) lastPayload() models.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloads[len(f.payloads)-1]
}

func ebookController(tr Transport, p Presenter, opts Options) *Controller {
	schema := validation.NewSchema(validation.FormConfig{PhoneRequired: true, Phone: phone.Domestic})
	return NewController(models.FormEbook, schema, tr, p, opts)
}

func fillEbook(c *Controller) {
	c.SetField(models.FieldName, "Ana Silva")
	c.SetField(models.FieldEmail, "ana@example.com")
	c.SetPhone("(11) 98765-4321")
	c.SetField(models.FieldAreaOfLaw, "Civil")
}

func TestSetPhone_MasksAndStoresCanonicalValue(t *testing.T) {
	c := ebookController(&fakeTransport{}, NewStatePresenter(models.FormEbook), Options{})

	assert.Equal(t, "(11) 9", c.SetPhone("119"))
	assert.Equal(t, "(11) 98765-4321", c.SetPhone("11987654321"))
	assert.Equal(t, "11987654321", c.Draft()[models.FieldPhone])

	intl := NewController(models.FormEbook,
		validation.NewSchema(validation.FormConfig{Phone: phone.International}),
		&fakeTransport{}, NewStatePresenter(models.FormEbook), Options{})
	assert.Equal(t, "+55 (11) 98765-4321", intl.SetPhone("11987654321"))
	assert.Equal(t, "+55 (11) 98765-4321", intl.Draft()[models.FieldPhone])
}

func TestSubmit_LocalValidationMakesNoNetworkCall(t *testing.T) {
	tr := &fakeTransport{}
	p := NewStatePresenter(models.FormEbook)
	c := ebookController(tr, p, Options{})

	c.SetField(models.FieldName, "A")
	c.SetField(models.FieldEmail, "bad-email")
	c.SetPhone("123")
	c.SetField(models.FieldAreaOfLaw, "")

	result, err := c.Submit(context.Background())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.KindValidationFailed, result.Kind)
	require.Len(t, result.Issues, 4)
	assert.Equal(t, int32(0), tr.calls.Load())

	view := p.View()
	assert.Len(t, view.FieldIssues, 4)
	assert.Nil(t, view.Toast)
	assert.False(t, view.Busy)
	assert.Equal(t, "A", c.Draft()[models.FieldName])
}

func TestSubmit_SuccessClearsDraft(t *testing.T) {
	tr := &fakeTransport{result: &models.SubmissionResult{
		Success:     true,
		Message:     "Obrigado, Ana Silva!",
		DownloadURL: "https://api.example.com/api/v1/ebook/download?token=x",
	}}
	p := NewStatePresenter(models.FormEbook)
	c := ebookController(tr, p, Options{})
	fillEbook(c)

	result, err := c.Submit(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(1), tr.calls.Load())
	assert.Equal(t, models.Payload{
		models.FieldName:      "Ana Silva",
		models.FieldEmail:     "ana@example.com",
		models.FieldPhone:     "11987654321",
		models.FieldAreaOfLaw: "Civil",
	}, tr.lastPayload())
	assert.Empty(t, c.Draft())
	assert.False(t, c.Submitting())

	view := p.View()
	require.NotNil(t, view.Toast)
	assert.Equal(t, "Sucesso!", view.Toast.Title)
	assert.Equal(t, ToastDefault, view.Toast.Variant)
	assert.True(t, view.Cleared)
	assert.Equal(t, tr.result.DownloadURL, view.DownloadURL)
}

func TestSubmit_ServerFailureKeepsDraft(t *testing.T) {
	tr := &fakeTransport{result: &models.SubmissionResult{
		Success: false,
		Message: validation.MsgInvalidDataOnServer,
		Kind:    models.KindValidationFailed,
		Issues:  []string{"areaOfLaw: " + validation.MsgSelectAreaOfLaw},
		Fields:  map[string]string{models.FieldName: "Ana Silva", models.FieldPhone: "(11) 98765-4321"},
	}}
	p := NewStatePresenter(models.FormEbook)
	c := ebookController(tr, p, Options{})
	fillEbook(c)

	result, err := c.Submit(context.Background())

	require.NoError(t, err)
	assert.False(t, result.Success)
	draft := c.Draft()
	assert.Equal(t, "Ana Silva", draft[models.FieldName])
	assert.Equal(t, "ana@example.com", draft[models.FieldEmail])
	assert.Equal(t, "11987654321", draft[models.FieldPhone])

	view := p.View()
	require.NotNil(t, view.Toast)
	assert.Equal(t, "Erro na Submissão", view.Toast.Title)
	assert.Equal(t, ToastDestructive, view.Toast.Variant)
	assert.Equal(t, validation.MsgSelectAreaOfLaw, view.FieldIssues[models.FieldAreaOfLaw])
	assert.False(t, view.Busy)
	assert.False(t, view.Cleared)
}

func TestSubmit_SecondSubmitWhileInFlightIsNoop(t *testing.T) {
	tr := &fakeTransport{
		started: make(chan struct{}),
		release: make(chan struct{}),
		result:  &models.SubmissionResult{Success: true, Message: "ok"},
	}
	p := NewStatePresenter(models.FormEbook)
	c := ebookController(tr, p, Options{})
	fillEbook(c)

	done := make(chan *models.SubmissionResult, 1)
	go func() {
		result, _ := c.Submit(context.Background())
		done <- result
	}()

	<-tr.started
	assert.True(t, c.Submitting())
	assert.True(t, p.View().Busy)

	result, err := c.Submit(context.Background())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.Equal(t, int32(1), tr.calls.Load())

	close(tr.release)
	first := <-done
	require.NotNil(t, first)
	assert.True(t, first.Success)
	assert.Equal(t, int32(1), tr.calls.Load())
	assert.False(t, c.Submitting())
}

func TestSubmit_TimeoutReenablesForm(t *testing.T) {
	tr := &fakeTransport{release: make(chan struct{})}
	p := NewStatePresenter(models.FormEbook)
	c := ebookController(tr, p, Options{Timeout: 20 * time.Millisecond})
	fillEbook(c)

	result, err := c.Submit(context.Background())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.KindTimeout, result.Kind)
	assert.Equal(t, MsgTimeout, result.Message)
	assert.False(t, c.Submitting())
	assert.Equal(t, "Ana Silva", c.Draft()[models.FieldName])

	view := p.View()
	assert.False(t, view.Busy)
	require.NotNil(t, view.Toast)
	assert.Equal(t, MsgTimeout, view.Toast.Description)
}

func TestSubmit_TransportErrorBecomesTransportFailed(t *testing.T) {
	tr := &fakeTransport{err: &TransportError{StatusCode: 502}}
	c := ebookController(tr, NewStatePresenter(models.FormEbook), Options{})
	fillEbook(c)

	result, err := c.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.KindTransportFailed, result.Kind)
	assert.Equal(t, MsgTransportFailed, result.Message)
	assert.Equal(t, "ana@example.com", result.Fields[models.FieldEmail])
	assert.Equal(t, "ana@example.com", c.Draft()[models.FieldEmail])
}

func TestSubmit_CaptchaToken(t *testing.T) {
	tr := &fakeTransport{result: &models.SubmissionResult{Success: true, Message: "ok"}}
	c := ebookController(tr, NewStatePresenter(models.FormEbook), Options{
		Captcha: func(context.Context) (string, error) { return "token-123", nil },
	})
	fillEbook(c)

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-123", tr.lastPayload()[models.FieldRecaptchaToken])

	failing := ebookController(tr, NewStatePresenter(models.FormEbook), Options{
		Captcha: func(context.Context) (string, error) { return "", errors.New("widget not loaded") },
	})
	fillEbook(failing)

	result, err := failing.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.KindTransportFailed, result.Kind)
	assert.NotContains(t, result.Fields, models.FieldRecaptchaToken)
	assert.Equal(t, int32(1), tr.calls.Load())
}

func TestContactPresenterTitles(t *testing.T) {
	p := NewStatePresenter(models.FormContact)

	p.ShowSuccess(&models.SubmissionResult{Success: true, Message: "ok", RedirectURL: "/obrigado"})
	view := p.View()
	assert.Equal(t, "Enviado com Sucesso!", view.Toast.Title)
	assert.Equal(t, "/obrigado", view.RedirectURL)

	p.ShowFailure(&models.SubmissionResult{Message: "falhou"})
	view = p.View()
	assert.Equal(t, "Erro no Envio", view.Toast.Title)
	assert.Empty(t, view.RedirectURL)
}

func TestParseIssues(t *testing.T) {
	issues := parseIssues([]string{"name: curto", "sem separador"})

	require.Len(t, issues, 2)
	assert.Equal(t, "name", issues[0].Field)
	assert.Equal(t, "curto", issues[0].Message)
	assert.Equal(t, "form", issues[1].Field)
}
