package formclient

import (
	"strings"
	"sync"

	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/internal/validation"
)

// Presenter surfaces submission state to the user
type Presenter interface {
	SetBusy(busy bool)
	ShowFieldIssues(issues validation.Issues)
	ShowSuccess(result *models.SubmissionResult)
	ShowFailure(result *models.SubmissionResult)
}

// ToastVariant selects the notification style
type ToastVariant string

const (
	ToastDefault     ToastVariant = "default"
	ToastDestructive ToastVariant = "destructive"
)

// Toast is a dismissible notification
type Toast struct {
	Title       string
	Description string
	Variant     ToastVariant
}

// View is a snapshot of what a form shows
type View struct {
	Busy        bool
	Toast       *Toast
	FieldIssues map[string]string
	DownloadURL string
	RedirectURL string
	// Cleared is set when a success reset the form
	Cleared bool
}

type toastTitles struct {
	success string
	failure string
}

var titlesByVariant = map[models.FormVariant]toastTitles{
	models.FormEbook:   {success: "Sucesso!", failure: "Erro na Submissão"},
	models.FormContact: {success: "Enviado com Sucesso!", failure: "Erro no Envio"},
}

// StatePresenter records presentation state in a View. Safe for concurrent use.
type StatePresenter struct {
	mu     sync.Mutex
	titles toastTitles
	view   View
}

// NewStatePresenter creates a presenter with the toast titles of variant
func NewStatePresenter(variant models.FormVariant) *StatePresenter {
	titles, ok := titlesByVariant[variant]
	if !ok {
		titles = titlesByVariant[models.FormEbook]
	}
	return &StatePresenter{titles: titles}
}

// SetBusy toggles the submitting indicator
func (p *StatePresenter) SetBusy(busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Busy = busy
}

// ShowFieldIssues replaces the inline messages next to each input
func (p *StatePresenter) ShowFieldIssues(issues validation.Issues) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.FieldIssues = issues.ByField()
	p.view.Cleared = false
}

// ShowSuccess shows the success toast, clears inline messages and exposes
// the follow-on download or redirect target
func (p *StatePresenter) ShowSuccess(result *models.SubmissionResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Toast = &Toast{Title: p.titles.success, Description: result.Message, Variant: ToastDefault}
	p.view.FieldIssues = nil
	p.view.DownloadURL = result.DownloadURL
	p.view.RedirectURL = result.RedirectURL
	p.view.Cleared = true
}

// ShowFailure shows the error toast. Inline messages already on screen stay
// visible; issues carried by the result are merged in.
func (p *StatePresenter) ShowFailure(result *models.SubmissionResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Toast = &Toast{Title: p.titles.failure, Description: result.Message, Variant: ToastDestructive}
	if len(result.Issues) > 0 {
		if p.view.FieldIssues == nil {
			p.view.FieldIssues = make(map[string]string, len(result.Issues))
		}
		for field, msg := range parseIssues(result.Issues).ByField() {
			p.view.FieldIssues[field] = msg
		}
	}
	p.view.DownloadURL = ""
	p.view.RedirectURL = ""
	p.view.Cleared = false
}

// View returns a copy of the current state
func (p *StatePresenter) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.view
	if p.view.Toast != nil {
		toast := *p.view.Toast
		v.Toast = &toast
	}
	if p.view.FieldIssues != nil {
		v.FieldIssues = make(map[string]string, len(p.view.FieldIssues))
		for k, msg := range p.view.FieldIssues {
			v.FieldIssues[k] = msg
		}
	}
	return v
}

// parseIssues turns "field: message" strings from the server back into issues
func parseIssues(lines []string) validation.Issues {
	issues := make(validation.Issues, 0, len(lines))
	for _, line := range lines {
		field, msg, ok := strings.Cut(line, ": ")
		if !ok {
			field, msg = "form", line
		}
		issues = append(issues, validation.Issue{Field: field, Message: msg})
	}
	return issues
}
