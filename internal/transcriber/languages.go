package transcriber

// AutoLanguage requests server-side language detection.
const AutoLanguage = "auto"

// supportedLanguages maps BCP 47 tags to their native display names.
var supportedLanguages = map[string]string{
	"nl-NL": "Nederlands",
	"en-US": "English (US)",
	"en-GB": "English (UK)",
	"de-DE": "Deutsch",
	"fr-FR": "Français",
	"es-ES": "Español",
	"it-IT": "Italiano",
	"pt-PT": "Português",
	"pt-BR": "Português (Brasil)",
	"ru-RU": "Русский",
	"ja-JP": "日本語",
	"zh-CN": "中文 (简体)",
	"ko-KR": "한국어",
}

// Languages returns the supported language tags with display names,
// including the auto-detect pseudo-tag.
func Languages() map[string]string {
	out := make(map[string]string, len(supportedLanguages)+1)
	for tag, name := range supportedLanguages {
		out[tag] = name
	}
	out[AutoLanguage] = "Automatisch detecteren"
	return out
}

// IsSupported reports whether tag is a known language tag or the
// auto-detect pseudo-tag.
func IsSupported(tag string) bool {
	if tag == AutoLanguage {
		return true
	}
	_, ok := supportedLanguages[tag]
	return ok
}

// engineCode reduces a BCP 47 tag to the two-letter code the
// transcription engine expects. "auto" maps to the empty string,
// which asks the engine to detect the language itself.
func engineCode(tag string) string {
	if tag == AutoLanguage {
		return ""
	}
	if len(tag) >= 2 {
		return tag[:2]
	}
	return tag
}
