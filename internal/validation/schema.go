// Package validation holds the field rules shared by the lead forms and the
// submission endpoints. The same Schema value is used before a form is sent
// and again when the server receives it.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maestriajurisp/leads-api/config"
	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/pkg/phone"
)

// IssueKind classifies a field violation
type IssueKind string

const (
	TooShort          IssueKind = "too_short"
	TooLong           IssueKind = "too_long"
	InvalidFormat     IssueKind = "invalid_format"
	RequiredSelection IssueKind = "required_selection"
)

// User facing messages
const (
	MsgNameTooShort        = "O nome deve ter pelo menos 2 caracteres."
	MsgNameTooLong         = "O nome deve ter no máximo 50 caracteres."
	MsgInvalidEmail        = "Por favor, insira um endereço de e-mail válido."
	MsgPhoneRequired       = "Por favor, informe seu celular."
	MsgInvalidPhone        = "Formato de celular inválido. Use (XX) XXXXX-XXXX (ex: (11) 98765-4321)."
	MsgInvalidIntlPhone    = "Formato de celular inválido. Use +XX (XX) XXXXX-XXXX (ex: +55 (11) 98765-4321)."
	MsgSelectAreaOfLaw     = "Por favor, selecione seu ramo de atuação."
	MsgSelectHowHeard      = "Por favor, selecione como nos conheceu."
	MsgSelectNumLawyers    = "Por favor, selecione o número de advogados do escritório."
	MsgInvalidField        = "Valor inválido."
	MsgInvalidData         = "Dados inválidos. Por favor, verifique os campos."
	MsgInvalidDataOnServer = "Dados inválidos. Por favor, verifique os campos (validação do servidor)."
)

var (
	domesticPhonePattern      = regexp.MustCompile(`^\d{10,11}$`)
	internationalPhonePattern = regexp.MustCompile(`^\+\d{1,3} \(\d{2}\) \d{5}-\d{4}$`)
)

// ErrUnknownField is returned by ValidateField for a field the variant does not have
var ErrUnknownField = errors.New("unknown form field")

// Issue is a single field violation
type Issue struct {
	Field   string    `json:"field"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// String renders the issue as "field: message"
func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// Issues is an ordered list of violations, following form field order
type Issues []Issue

// Strings renders every issue as "field: message"
func (is Issues) Strings() []string {
	if len(is) == 0 {
		return nil
	}
	out := make([]string, len(is))
	for i, issue := range is {
		out[i] = issue.String()
	}
	return out
}

// ByField returns the first message for each failing field
func (is Issues) ByField() map[string]string {
	out := make(map[string]string, len(is))
	for _, issue := range is {
		if _, ok := out[issue.Field]; !ok {
			out[issue.Field] = issue.Message
		}
	}
	return out
}

// For returns the first issue for field
func (is Issues) For(field string) (Issue, bool) {
	for _, issue := range is {
		if issue.Field == field {
			return issue, true
		}
	}
	return Issue{}, false
}

// FormConfig is the per-variant phone policy
type FormConfig struct {
	PhoneRequired bool
	Phone         phone.Format
}

// FromPolicy converts the configured phone policy of a form
func FromPolicy(p config.PhonePolicy) FormConfig {
	return FormConfig{
		PhoneRequired: p.Required,
		Phone:         phone.Format{CountryCode: p.CountryCode},
	}
}

// Schema validates lead forms. It is read-only after NewSchema and safe for
// concurrent use.
type Schema struct {
	cfg      FormConfig
	validate *validator.Validate
}

// NewSchema builds a schema for one phone policy
func NewSchema(cfg FormConfig) *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Schema{cfg: cfg, validate: v}

	custom := map[string]validator.Func{
		"leadphone":  func(fl validator.FieldLevel) bool { return s.phoneMessage(fl.Field().String()) == "" },
		"areaoflaw":  oneOf(models.AreasOfLaw),
		"howheard":   oneOf(models.ReferralSources),
		"numlawyers": oneOf(models.FirmSizes),
	}
	for tag, fn := range custom {
		// Only fails for malformed tag names
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	return s
}

// Config returns the phone policy the schema enforces
func (s *Schema) Config() FormConfig {
	return s.cfg
}

// CanonicalPhone rewrites a submitted phone into the shape the form mask
// produces. Values the mask would have to shorten or clean are returned
// unchanged so the phone rule rejects them.
func (s *Schema) CanonicalPhone(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	if value, ok := s.cfg.Phone.Canonical(raw); ok {
		return value
	}
	return raw
}

// Canonicalize returns a copy of payload with its phone made canonical
func (s *Schema) Canonicalize(payload models.Payload) models.Payload {
	out := models.Payload(payload.Clone())
	if raw, ok := out[models.FieldPhone]; ok {
		out[models.FieldPhone] = s.CanonicalPhone(raw)
	}
	return out
}

func oneOf(options []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return models.Contains(options, fl.Field().String())
	}
}

// phoneMessage returns "" when value is acceptable, otherwise the message to show
func (s *Schema) phoneMessage(value string) string {
	if value == "" || (value == "+" && s.cfg.Phone.IsInternational()) {
		if s.cfg.PhoneRequired {
			return MsgPhoneRequired
		}
		return ""
	}
	if s.cfg.Phone.IsInternational() {
		if internationalPhonePattern.MatchString(value) {
			return ""
		}
		return MsgInvalidIntlPhone
	}
	if domesticPhonePattern.MatchString(value) {
		return ""
	}
	return MsgInvalidPhone
}

// ValidateEbook checks an e-book form payload
func (s *Schema) ValidateEbook(payload models.Payload) (*models.EbookLeadRequest, Issues) {
	req := &models.EbookLeadRequest{
		Name:           clean(payload, models.FieldName),
		Email:          clean(payload, models.FieldEmail),
		Phone:          clean(payload, models.FieldPhone),
		AreaOfLaw:      clean(payload, models.FieldAreaOfLaw),
		RecaptchaToken: clean(payload, models.FieldRecaptchaToken),
	}
	if issues := s.check(models.FormEbook, req); len(issues) > 0 {
		return nil, issues
	}
	return req, nil
}

// ValidateContact checks a contact form payload
func (s *Schema) ValidateContact(payload models.Payload) (*models.ContactLeadRequest, Issues) {
	req := &models.ContactLeadRequest{
		Name:           clean(payload, models.FieldName),
		Email:          clean(payload, models.FieldEmail),
		Phone:          clean(payload, models.FieldPhone),
		AreaOfLaw:      clean(payload, models.FieldAreaOfLaw),
		HowHeard:       clean(payload, models.FieldHowHeard),
		NumLawyers:     clean(payload, models.FieldNumLawyers),
		RecaptchaToken: clean(payload, models.FieldRecaptchaToken),
	}
	if issues := s.check(models.FormContact, req); len(issues) > 0 {
		return nil, issues
	}
	return req, nil
}

// Validate checks a payload for either variant and returns only the issues
func (s *Schema) Validate(variant models.FormVariant, payload models.Payload) Issues {
	if variant == models.FormContact {
		_, issues := s.ValidateContact(payload)
		return issues
	}
	_, issues := s.ValidateEbook(payload)
	return issues
}

// ValidateField checks a single field, for feedback while the user types.
// Phones are made canonical first, as on submit. It returns nil when the
// value is acceptable.
func (s *Schema) ValidateField(variant models.FormVariant, field, value string) (*Issue, error) {
	known := false
	for _, f := range variant.Fields() {
		if f == field {
			known = true
			break
		}
	}
	if !known {
		return nil, ErrUnknownField
	}

	if field == models.FieldPhone {
		value = s.CanonicalPhone(value)
	}

	issue, ok := s.Validate(variant, models.Payload{field: value}).For(field)
	if !ok {
		return nil, nil
	}
	return &issue, nil
}

func clean(payload models.Payload, key string) string {
	return strings.TrimSpace(payload.Get(key))
}

func (s *Schema) check(variant models.FormVariant, req any) Issues {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Issues{{Field: "form", Kind: InvalidFormat, Message: MsgInvalidField}}
	}

	issues := make(Issues, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		issues = append(issues, s.issueFor(fe))
	}

	order := make(map[string]int, len(variant.Fields()))
	for i, f := range variant.Fields() {
		order[f] = i
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return order[issues[i].Field] < order[issues[j].Field]
	})

	return issues
}

func (s *Schema) issueFor(fe validator.FieldError) Issue {
	field := fe.Field()

	switch fe.Tag() {
	case "min":
		return Issue{Field: field, Kind: TooShort, Message: MsgNameTooShort}
	case "max":
		return Issue{Field: field, Kind: TooLong, Message: MsgNameTooLong}
	case "required", "email":
		return Issue{Field: field, Kind: InvalidFormat, Message: MsgInvalidEmail}
	case "leadphone":
		value, _ := fe.Value().(string)
		return Issue{Field: field, Kind: InvalidFormat, Message: s.phoneMessage(value)}
	case "areaoflaw":
		return Issue{Field: field, Kind: RequiredSelection, Message: MsgSelectAreaOfLaw}
	case "howheard":
		return Issue{Field: field, Kind: RequiredSelection, Message: MsgSelectHowHeard}
	case "numlawyers":
		return Issue{Field: field, Kind: RequiredSelection, Message: MsgSelectNumLawyers}
	default:
		return Issue{Field: field, Kind: InvalidFormat, Message: MsgInvalidField}
	}
}
