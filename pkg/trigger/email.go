package trigger

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/pkg/email"
	"github.com/maestriajurisp/leads-api/pkg/slug"
)

const leadEmailHTML = `<h2>Novo lead: {{.FormLabel}}</h2>
<table>
<tr><td><strong>Nome</strong></td><td>{{.Lead.Name}}</td></tr>
<tr><td><strong>E-mail</strong></td><td>{{.Lead.Email}}</td></tr>
{{- if .Lead.Phone}}
<tr><td><strong>Celular</strong></td><td>{{.Lead.Phone}}</td></tr>
{{- end}}
<tr><td><strong>Ramo</strong></td><td>{{.Lead.AreaOfLaw}}</td></tr>
{{- if .Lead.HowHeard}}
<tr><td><strong>Como nos conheceu</strong></td><td>{{.Lead.HowHeard}}</td></tr>
{{- end}}
{{- if .Lead.NumLawyers}}
<tr><td><strong>Advogados</strong></td><td>{{.Lead.NumLawyers}}</td></tr>
{{- end}}
</table>
<p>ID: {{.Lead.ID}}</p>
`

const leadEmailText = `Novo lead: {{.FormLabel}}

Nome: {{.Lead.Name}}
E-mail: {{.Lead.Email}}
{{- if .Lead.Phone}}
Celular: {{.Lead.Phone}}
{{- end}}
Ramo: {{.Lead.AreaOfLaw}}
{{- if .Lead.HowHeard}}
Como nos conheceu: {{.Lead.HowHeard}}
{{- end}}
{{- if .Lead.NumLawyers}}
Advogados: {{.Lead.NumLawyers}}
{{- end}}

ID: {{.Lead.ID}}
`

var (
	leadHTMLTemplate = htmltemplate.Must(htmltemplate.New("lead.html").Parse(leadEmailHTML))
	leadTextTemplate = texttemplate.Must(texttemplate.New("lead.txt").Parse(leadEmailText))
)

type leadEmailData struct {
	FormLabel string
	Lead      *models.Lead
}

func formLabel(form models.FormVariant) string {
	if form == models.FormContact {
		return "formulário de contato"
	}
	return "download do e-book"
}

// BuildLeadEmail renders the sales inbox message for a lead
func BuildLeadEmail(lead *models.Lead, to []string) (*email.Message, error) {
	data := leadEmailData{FormLabel: formLabel(lead.Form), Lead: lead}

	var html, text bytes.Buffer
	if err := leadHTMLTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render lead email: %w", err)
	}
	if err := leadTextTemplate.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render lead email: %w", err)
	}

	return &email.Message{
		To:      to,
		Subject: fmt.Sprintf("Novo lead (%s): %s", data.FormLabel, lead.Name),
		HTML:    html.String(),
		Text:    text.String(),
		Tags: map[string]string{
			"form":        string(lead.Form),
			"area_of_law": slug.Tag(lead.AreaOfLaw),
		},
	}, nil
}

// EmailNotifier sends each lead to the sales inbox
type EmailNotifier struct {
	sender email.Sender
	to     []string
}

// NewEmailNotifier creates an e-mail notifier
func NewEmailNotifier(sender email.Sender, to []string) *EmailNotifier {
	return &EmailNotifier{sender: sender, to: to}
}

// Name implements Notifier
func (n *EmailNotifier) Name() string {
	return "email"
}

// Notify implements Notifier
func (n *EmailNotifier) Notify(ctx context.Context, lead *models.Lead) error {
	msg, err := BuildLeadEmail(lead, n.to)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}
