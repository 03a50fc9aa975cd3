package models

// AreasOfLaw are the practice areas offered by both lead forms, sorted for display
var AreasOfLaw = []string{
	"Administrativo",
	"Adv. Pública",
	"Civil",
	"Digital",
	"Empresarial",
	"Família",
	"Imobiliário",
	"Magistratura",
	"Penal",
	"Previdenciário",
	"Privacidade de Dados",
	"Promotoria",
	"Sucessões",
	"Trabalhista",
	"Tributário",
}

// ReferralSources answer "como nos conheceu" on the contact form
var ReferralSources = []string{
	"Google",
	"Instagram",
	"YouTube",
	"LinkedIn",
	"Indicação",
	"Outro",
}

// FirmSizes answer "quantos advogados" on the contact form
var FirmSizes = []string{
	"Apenas eu",
	"2 a 5",
	"6 a 10",
	"11 a 50",
	"Mais de 50",
}

// Contains reports whether value is one of options. Matching is exact.
func Contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}

// PhoneFieldOptions tells a form how to render and mask its phone input
type PhoneFieldOptions struct {
	Required      bool   `json:"required"`
	International bool   `json:"international"`
	CountryCode   string `json:"countryCode,omitempty"`
}

// LeadOptionsResponse is served to form clients so selectors and validation
// share one list of values
type LeadOptionsResponse struct {
	AreasOfLaw      []string                          `json:"areasOfLaw"`
	ReferralSources []string                          `json:"referralSources"`
	FirmSizes       []string                          `json:"firmSizes"`
	Phone           map[FormVariant]PhoneFieldOptions `json:"phone"`
}
