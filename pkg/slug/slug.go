package slug

import (
	"regexp"
	"strings"
)

// accentToASCII folds the Portuguese diacritics found in option labels
var accentToASCII = map[rune]string{
	'á': "a", 'Á': "a",
	'à': "a", 'À': "a",
	'â': "a", 'Â': "a",
	'ã': "a", 'Ã': "a",
	'é': "e", 'É': "e",
	'ê': "e", 'Ê': "e",
	'í': "i", 'Í': "i",
	'ó': "o", 'Ó': "o",
	'ô': "o", 'Ô': "o",
	'õ': "o", 'Õ': "o",
	'ú': "u", 'Ú': "u",
	'ü': "u", 'Ü': "u",
	'ç': "c", 'Ç': "c",
}

var (
	invalidTagChars = regexp.MustCompile(`[^a-z0-9_-]+`)
	repeatedDashes  = regexp.MustCompile(`-{2,}`)
)

// maxTagLen is the longest tag value e-mail providers accept
const maxTagLen = 256

// Tag turns a label into an ASCII tag value: lowercase letters, digits,
// underscores and dashes only.
// Example: "Privacidade de Dados" -> "privacidade-de-dados", "Adv. Pública" -> "adv-publica"
func Tag(label string) string {
	var result strings.Builder
	for _, char := range strings.TrimSpace(label) {
		if ascii, exists := accentToASCII[char]; exists {
			result.WriteString(ascii)
		} else {
			result.WriteRune(char)
		}
	}

	tag := strings.ToLower(result.String())
	tag = strings.ReplaceAll(tag, " ", "-")
	tag = invalidTagChars.ReplaceAllString(tag, "")
	tag = repeatedDashes.ReplaceAllString(tag, "-")
	tag = strings.Trim(tag, "-")

	if len(tag) > maxTagLen {
		tag = tag[:maxTagLen]
	}
	if tag == "" {
		return "none"
	}
	return tag
}
