package models

import (
	"time"
)

// FormVariant identifies which landing page form produced a lead
type FormVariant string

const (
	FormEbook   FormVariant = "ebook"
	FormContact FormVariant = "contact"
)

// Payload keys, shared by the HTTP API, the webhook and the client SDK
const (
	FieldName           = "name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldAreaOfLaw      = "areaOfLaw"
	FieldHowHeard       = "howHeard"
	FieldNumLawyers     = "numLawyers"
	FieldRecaptchaToken = "recaptchaToken"
)

// Fields returns the variant's input fields in form order
func (v FormVariant) Fields() []string {
	if v == FormContact {
		return []string{FieldName, FieldEmail, FieldPhone, FieldAreaOfLaw, FieldHowHeard, FieldNumLawyers}
	}
	return []string{FieldName, FieldEmail, FieldPhone, FieldAreaOfLaw}
}

// IsValid reports whether v is a known form variant
func (v FormVariant) IsValid() bool {
	return v == FormEbook || v == FormContact
}

// Payload is the flat key/value body a form submits
type Payload map[string]string

// Get returns the value for key, or "" when absent
func (p Payload) Get(key string) string {
	return p[key]
}

// Clone returns a copy that is safe to hand back to a caller
func (p Payload) Clone() map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// WithoutSecrets drops keys that must never be echoed or logged
func (p Payload) WithoutSecrets() map[string]string {
	out := p.Clone()
	delete(out, FieldRecaptchaToken)
	return out
}

// EbookLeadRequest is a validated e-book download form
type EbookLeadRequest struct {
	Name           string `json:"name" validate:"min=2,max=50"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"leadphone"`
	AreaOfLaw      string `json:"areaOfLaw" validate:"areaoflaw"`
	RecaptchaToken string `json:"recaptchaToken,omitempty" validate:"-"`
}

// ContactLeadRequest is a validated contact modal form
type ContactLeadRequest struct {
	Name           string `json:"name" validate:"min=2,max=50"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"leadphone"`
	AreaOfLaw      string `json:"areaOfLaw" validate:"areaoflaw"`
	HowHeard       string `json:"howHeard" validate:"howheard"`
	NumLawyers     string `json:"numLawyers" validate:"numlawyers"`
	RecaptchaToken string `json:"recaptchaToken,omitempty" validate:"-"`
}

// SubmissionKind classifies a failed submission
type SubmissionKind string

const (
	KindValidationFailed SubmissionKind = "validation_failed"
	KindSideEffectFailed SubmissionKind = "side_effect_failed"
	KindCaptchaFailed    SubmissionKind = "captcha_failed"
	KindTransportFailed  SubmissionKind = "transport_failed"
	KindTimeout          SubmissionKind = "timeout"
)

// SubmissionResult is returned for every form submission, successful or not
type SubmissionResult struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	Kind        SubmissionKind    `json:"kind,omitempty"`
	Issues      []string          `json:"issues,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	LeadID      string            `json:"leadId,omitempty"`
	DownloadURL string            `json:"downloadUrl,omitempty"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
}

// RequestMeta carries request details recorded alongside a lead
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// Lead is a recorded form submission
type Lead struct {
	ID         string      `json:"id"`
	Form       FormVariant `json:"form"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone,omitempty"`
	AreaOfLaw  string      `json:"areaOfLaw"`
	HowHeard   string      `json:"howHeard,omitempty"`
	NumLawyers string      `json:"numLawyers,omitempty"`
	ClientIP   string      `json:"-"`
	UserAgent  string      `json:"-"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// EbookPreview describes the public preview of the gated e-book
type EbookPreview struct {
	Title        string `json:"title"`
	FileURL      string `json:"fileUrl"`
	WorkerURL    string `json:"workerUrl"`
	PreviewPages int    `json:"previewPages"`
}
