// Package translate turns achievement text into other languages. It offers
// HTTP AI providers (Google AI, Groq, OpenCode, Ollama, custom
// OpenAI-compatible endpoints), offline gettext catalogs, and a no-op
// passthrough.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Translator translates a batch of strings into lang. The result has one
// entry per input, in the same order.
type Translator interface {
	Translate(ctx context.Context, texts []string, lang string) ([]string, error)
}

// TranslationError reports a failed translation into Lang.
type TranslationError struct {
	Lang string
	Err  error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translating to %s: %v", e.Lang, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Provider IDs that do not call an AI service.
const (
	ProviderNone    = "none"
	ProviderCatalog = "catalog"
)

// Config selects and configures a Translator.
type Config struct {
	// Provider is one of none, catalog, google, groq, opencode, ollama,
	// custom-openai. Empty means none.
	Provider string
	// Model is the AI model name (AI providers only).
	Model string
	// APIKey authenticates with the AI provider.
	APIKey string
	// BaseURL overrides the provider's default endpoint.
	BaseURL string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout (0 = provider default).
	Timeout time.Duration
	// MaxRetries bounds retries on 429 and 5xx (0 = default 3).
	MaxRetries int
	// CatalogDir holds <lang>.po files for the catalog provider.
	CatalogDir string
	// SourceLang is the language of the CSV text (default "en").
	SourceLang string
	// SystemPrompt overrides the built-in prompt ({{sourceLang}} and
	// {{targetLang}} are substituted).
	SystemPrompt string
	// Verbose logs every provider request.
	Verbose bool
	// OnLog receives diagnostic messages.
	OnLog func(format string, args ...any)
}

// New builds the Translator described by cfg. Targets in the source
// language are passed through without a provider call.
func New(cfg Config) (Translator, error) {
	source := cfg.SourceLang
	if source == "" {
		source = "en"
	}

	var t Translator
	switch id := strings.ToLower(cfg.Provider); id {
	case "", ProviderNone:
		return Noop{}, nil
	case ProviderCatalog:
		if cfg.CatalogDir == "" {
			return nil, fmt.Errorf("provider %q requires a catalog directory", ProviderCatalog)
		}
		t = NewCatalog(cfg.CatalogDir)
	default:
		prov, err := ResolveProvider(cfg)
		if err != nil {
			return nil, err
		}
		t = &ProviderTranslator{
			Provider:     prov,
			SourceLang:   source,
			SystemPrompt: cfg.SystemPrompt,
			MaxRetries:   cfg.MaxRetries,
			Verbose:      cfg.Verbose,
			OnLog:        cfg.OnLog,
		}
	}
	return SkipSource(t, source), nil
}

// ---------------------------------------------------------------------------
// Noop and source-language passthrough
// ---------------------------------------------------------------------------

// Noop returns its input unchanged.
type Noop struct{}

// Translate implements Translator.
func (Noop) Translate(_ context.Context, texts []string, _ string) ([]string, error) {
	return append([]string(nil), texts...), nil
}

type sourceSkipper struct {
	next   Translator
	source language.Base
}

// SkipSource wraps t so that targets sharing the base language of
// sourceLang (e.g. en-GB for an English sheet) are returned unchanged.
func SkipSource(t Translator, sourceLang string) Translator {
	base, ok := baseLanguage(sourceLang)
	if !ok {
		return t
	}
	return &sourceSkipper{next: t, source: base}
}

func (s *sourceSkipper) Translate(ctx context.Context, texts []string, lang string) ([]string, error) {
	if base, ok := baseLanguage(lang); ok && base == s.source {
		return append([]string(nil), texts...), nil
	}
	return s.next.Translate(ctx, texts, lang)
}

func baseLanguage(code string) (language.Base, bool) {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return language.Base{}, false
	}
	base, conf := tag.Base()
	return base, conf != language.No
}
