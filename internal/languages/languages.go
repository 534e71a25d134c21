// Package languages holds the static catalog of supported synthesis
// languages. The catalog is advisory: requests with unknown codes are
// forwarded to the synthesis engine, which rejects what it cannot speak.
package languages

// Default is applied when a request carries no language code.
const Default = "en"

var catalog = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"hi": "Hindi",
	"ar": "Arabic",
}

// Supported returns a copy of the code-to-display-name catalog.
func Supported() map[string]string {
	out := make(map[string]string, len(catalog))
	for code, name := range catalog {
		out[code] = name
	}

	return out
}

// DisplayName resolves a language code to its display name.
func DisplayName(code string) (string, bool) {
	name, ok := catalog[code]

	return name, ok
}
