// Package langmeta provides the language metadata registry used in
// translation prompts and CLI output, plus the set of locales Game Center
// accepts for achievement localizations.
package langmeta

import "strings"

// Meta describes language display metadata.
type Meta struct {
	// Name is the English name, used in translation prompts.
	Name string
	// Native is the language's own name for itself.
	Native string
	Flag   string
}

// Registry contains canonical language metadata.
// Locale variants are resolved in Resolve() via normalization and base fallback.
var Registry = map[string]Meta{
	"ar":      {Name: "Arabic", Native: "العربية", Flag: "🇸🇦"},
	"ca":      {Name: "Catalan", Native: "Català", Flag: "🇪🇸"},
	"cs":      {Name: "Czech", Native: "Čeština", Flag: "🇨🇿"},
	"da":      {Name: "Danish", Native: "Dansk", Flag: "🇩🇰"},
	"de":      {Name: "German", Native: "Deutsch", Flag: "🇩🇪"},
	"el":      {Name: "Greek", Native: "Ελληνικά", Flag: "🇬🇷"},
	"en":      {Name: "English", Native: "English", Flag: "🇺🇸"},
	"en-AU":   {Name: "English (Australia)", Native: "English (Australia)", Flag: "🇦🇺"},
	"en-CA":   {Name: "English (Canada)", Native: "English (Canada)", Flag: "🇨🇦"},
	"en-GB":   {Name: "English (UK)", Native: "English (UK)", Flag: "🇬🇧"},
	"es":      {Name: "Spanish", Native: "Español", Flag: "🇪🇸"},
	"es-MX":   {Name: "Spanish (Mexico)", Native: "Español (México)", Flag: "🇲🇽"},
	"fi":      {Name: "Finnish", Native: "Suomi", Flag: "🇫🇮"},
	"fr":      {Name: "French", Native: "Français", Flag: "🇫🇷"},
	"fr-CA":   {Name: "French (Canada)", Native: "Français (Canada)", Flag: "🇨🇦"},
	"he":      {Name: "Hebrew", Native: "עברית", Flag: "🇮🇱"},
	"hi":      {Name: "Hindi", Native: "हिन्दी", Flag: "🇮🇳"},
	"hr":      {Name: "Croatian", Native: "Hrvatski", Flag: "🇭🇷"},
	"hu":      {Name: "Hungarian", Native: "Magyar", Flag: "🇭🇺"},
	"id":      {Name: "Indonesian", Native: "Bahasa Indonesia", Flag: "🇮🇩"},
	"it":      {Name: "Italian", Native: "Italiano", Flag: "🇮🇹"},
	"ja":      {Name: "Japanese", Native: "日本語", Flag: "🇯🇵"},
	"ko":      {Name: "Korean", Native: "한국어", Flag: "🇰🇷"},
	"ms":      {Name: "Malay", Native: "Bahasa Melayu", Flag: "🇲🇾"},
	"nl":      {Name: "Dutch", Native: "Nederlands", Flag: "🇳🇱"},
	"no":      {Name: "Norwegian", Native: "Norsk", Flag: "🇳🇴"},
	"pl":      {Name: "Polish", Native: "Polski", Flag: "🇵🇱"},
	"pt":      {Name: "Portuguese", Native: "Português", Flag: "🇵🇹"},
	"pt-BR":   {Name: "Portuguese (Brazil)", Native: "Português (Brasil)", Flag: "🇧🇷"},
	"ro":      {Name: "Romanian", Native: "Română", Flag: "🇷🇴"},
	"ru":      {Name: "Russian", Native: "Русский", Flag: "🇷🇺"},
	"sk":      {Name: "Slovak", Native: "Slovenčina", Flag: "🇸🇰"},
	"sv":      {Name: "Swedish", Native: "Svenska", Flag: "🇸🇪"},
	"th":      {Name: "Thai", Native: "ไทย", Flag: "🇹🇭"},
	"tr":      {Name: "Turkish", Native: "Türkçe", Flag: "🇹🇷"},
	"uk":      {Name: "Ukrainian", Native: "Українська", Flag: "🇺🇦"},
	"vi":      {Name: "Vietnamese", Native: "Tiếng Việt", Flag: "🇻🇳"},
	"zh":      {Name: "Chinese", Native: "中文", Flag: "🇨🇳"},
	"zh-Hans": {Name: "Chinese (Simplified)", Native: "简体中文", Flag: "🇨🇳"},
	"zh-Hant": {Name: "Chinese (Traditional)", Native: "繁體中文", Flag: "🇹🇼"},
}

// GameCenterLocales lists the locale codes App Store Connect accepts for
// Game Center achievement localizations.
var GameCenterLocales = map[string]bool{
	"ar-SA": true, "ca": true, "cs": true, "da": true, "de-DE": true,
	"el": true, "en-AU": true, "en-CA": true, "en-GB": true, "en-US": true,
	"es-ES": true, "es-MX": true, "fi": true, "fr-CA": true, "fr-FR": true,
	"he": true, "hi": true, "hr": true, "hu": true, "id": true,
	"it": true, "ja": true, "ko": true, "ms": true, "nl-NL": true,
	"no": true, "pl": true, "pt-BR": true, "pt-PT": true, "ro": true,
	"ru": true, "sk": true, "sv": true, "th": true, "tr": true,
	"uk": true, "vi": true, "zh-Hans": true, "zh-Hant": true,
}

// IsGameCenterLocale reports whether locale is one App Store Connect accepts.
func IsGameCenterLocale(locale string) bool {
	return GameCenterLocales[canonicalize(locale)]
}

// canonicalize lowercases the language, title-cases a script subtag and
// uppercases a region subtag.
func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		if len(parts[1]) == 4 {
			parts[1] = strings.ToUpper(parts[1][:1]) + strings.ToLower(parts[1][1:])
		} else {
			parts[1] = strings.ToUpper(parts[1])
		}
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort language metadata for language codes,
// supporting variants like pt_BR, pt-BR, and locale fallbacks.
func Resolve(lang string) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if parts := strings.SplitN(normalized, "-", 2); len(parts) == 2 {
		if m, ok := Registry[parts[0]]; ok {
			return m
		}
	}
	return Meta{Name: lang, Flag: ""}
}

// Describe names a language for a translation prompt, e.g. "French (fr)".
func Describe(lang string) string {
	m := Resolve(lang)
	if m.Name == lang || m.Name == "" {
		return lang
	}
	return m.Name + " (" + lang + ")"
}
