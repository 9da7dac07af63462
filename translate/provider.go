package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/minios-linux/gcupload/langmeta"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle       = "google"
	ProviderGroq         = "groq"
	ProviderOpenCode     = "opencode"
	ProviderOllama       = "ollama"
	ProviderCustomOpenAI = "custom-openai"
)

// ---------------------------------------------------------------------------
// System prompt
// ---------------------------------------------------------------------------

// DefaultSystemPrompt is used unless Config.SystemPrompt overrides it.
const DefaultSystemPrompt = `You are a professional translator specializing in video game localization. You are translating Game Center achievement texts (achievement names and the descriptions shown before and after the achievement is earned) from {{sourceLang}} to {{targetLang}}.

GUIDELINES:
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word
- Keep achievement names short and punchy; they are shown as titles
- Use the gaming terminology players of {{targetLang}} games expect
- Keep the tone playful when the source is playful
- Keep numbers, placeholders and proper nouns (game, character and place names) unchanged
- Never add explanations, quotes or notes

OUTPUT FORMAT:
Return ONLY a JSON array of translated strings, in the same order as the input, with exactly one string per input entry.`

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for an AI translation service.
type Provider struct {
	// ID is the provider identifier (google, groq, opencode, ...).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
			Timeout: 120 * time.Second,
		},
		ProviderGroq: {
			ID:      ProviderGroq,
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1",
			Timeout: 60 * time.Second,
		},
		ProviderOpenCode: {
			ID:      ProviderOpenCode,
			Name:    "OpenCode",
			BaseURL: "https://opencode.ai/zen/v1",
			Timeout: 120 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Timeout: 120 * time.Second,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 60 * time.Second,
		},
	}
}

// ResolveProvider merges cfg over the matching default provider and checks
// that the combination is usable.
func ResolveProvider(cfg Config) (Provider, error) {
	id := strings.ToLower(cfg.Provider)
	prov, ok := DefaultProviders()[id]
	if !ok {
		return Provider{}, fmt.Errorf("unknown translation provider %q (valid: none, catalog, google, groq, opencode, ollama, custom-openai)", cfg.Provider)
	}

	if cfg.BaseURL != "" {
		prov.BaseURL = cfg.BaseURL
	}
	if cfg.APIKey != "" {
		prov.APIKey = cfg.APIKey
	}
	if cfg.Model != "" {
		prov.Model = cfg.Model
	}
	if cfg.Proxy != "" {
		prov.Proxy = cfg.Proxy
	}
	if cfg.Timeout > 0 {
		prov.Timeout = cfg.Timeout
	}

	if prov.Model == "" {
		return Provider{}, fmt.Errorf("provider %q requires a model", prov.ID)
	}
	switch prov.ID {
	case ProviderGoogle, ProviderGroq:
		if prov.APIKey == "" {
			return Provider{}, fmt.Errorf("provider %q requires an API key (--api-key, GCUPLOAD_API_KEY or 'gcupload auth login --provider %s')", prov.ID, prov.ID)
		}
	case ProviderCustomOpenAI:
		if prov.BaseURL == "" {
			return Provider{}, fmt.Errorf("provider %q requires an endpoint URL (--base-url)", prov.ID)
		}
	}
	return prov, nil
}

// ---------------------------------------------------------------------------
// ProviderTranslator
// ---------------------------------------------------------------------------

// ProviderTranslator sends strings to an AI provider as a numbered list and
// expects a JSON array back.
type ProviderTranslator struct {
	Provider     Provider
	SourceLang   string
	SystemPrompt string
	MaxRetries   int
	Verbose      bool
	OnLog        func(format string, args ...any)
}

// Translate implements Translator. Empty strings are not sent.
func (p *ProviderTranslator) Translate(ctx context.Context, texts []string, lang string) ([]string, error) {
	out := make([]string, len(texts))
	var pending []int
	for i, s := range texts {
		if strings.TrimSpace(s) == "" {
			out[i] = s
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	var userMsg strings.Builder
	userMsg.WriteString("Translate these entries:\n\n")
	for n, i := range pending {
		fmt.Fprintf(&userMsg, "%d. %s\n", n+1, escapeForPrompt(texts[i]))
	}
	fmt.Fprintf(&userMsg, "\nReturn a JSON array with exactly %d translated strings.", len(pending))

	text, err := callProvider(ctx, p.Provider, p.resolvedPrompt(lang), userMsg.String(), p.maxRetries(), p.Verbose)
	if err != nil {
		return nil, &TranslationError{Lang: lang, Err: err}
	}
	translated, err := parseTranslations(text, len(pending))
	if err != nil {
		return nil, &TranslationError{Lang: lang, Err: err}
	}
	if len(translated) != len(pending) {
		return nil, &TranslationError{Lang: lang, Err: fmt.Errorf("got %d translations, expected %d", len(translated), len(pending))}
	}

	for n, i := range pending {
		out[i] = translated[n]
	}
	p.log("Translated %d strings to %s", len(pending), lang)
	return out, nil
}

func (p *ProviderTranslator) log(format string, args ...any) {
	if p.OnLog != nil {
		p.OnLog(format, args...)
	}
}

func (p *ProviderTranslator) maxRetries() int {
	if p.MaxRetries > 0 {
		return p.MaxRetries
	}
	return 3
}

// resolvedPrompt returns the system prompt with language names filled in.
func (p *ProviderTranslator) resolvedPrompt(lang string) string {
	prompt := p.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	source := p.SourceLang
	if source == "" {
		source = "en"
	}
	prompt = strings.ReplaceAll(prompt, "{{sourceLang}}", langmeta.Describe(source))
	return strings.ReplaceAll(prompt, "{{targetLang}}", langmeta.Describe(lang))
}

// ---------------------------------------------------------------------------
// HTTP client with real proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both --proxy flag and HTTP_PROXY/HTTPS_PROXY env vars
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// API format types
// ---------------------------------------------------------------------------

type apiFormat int

const (
	formatOpenAIChat      apiFormat = iota // OpenAI chat/completions
	formatGeminiNative                     // Google Gemini generateContent
	formatAnthropic                        // Anthropic messages
	formatOpenAIResponses                  // OpenAI responses API
)

// formatFor picks the wire format for a provider. OpenCode dispatches on the
// model prefix.
func formatFor(prov Provider) apiFormat {
	switch prov.ID {
	case ProviderGoogle:
		return formatGeminiNative
	case ProviderOpenCode:
		switch {
		case strings.HasPrefix(prov.Model, "gemini-"):
			return formatGeminiNative
		case strings.HasPrefix(prov.Model, "claude-"):
			return formatAnthropic
		case strings.HasPrefix(prov.Model, "gpt-"):
			return formatOpenAIResponses
		}
	}
	return formatOpenAIChat
}

// ---------------------------------------------------------------------------
// Request builders for each API format
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

func buildAnthropicRequest(model, systemPrompt, userPrompt string) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    string `json:"system,omitempty"`
		Messages  []msg  `json:"messages"`
	}{
		Model:     model,
		MaxTokens: 4096,
		System:    systemPrompt,
		Messages:  []msg{{Role: "user", Content: userPrompt}},
	}
	return json.Marshal(req)
}

func buildOpenAIResponsesRequest(model, prompt string) ([]byte, error) {
	req := struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}{
		Model: model,
		Input: prompt,
	}
	return json.Marshal(req)
}

// buildHTTPRequest constructs the endpoint, headers, and body for a provider.
func buildHTTPRequest(prov Provider, systemPrompt, userPrompt string, format apiFormat) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	base := strings.TrimRight(prov.BaseURL, "/")

	var endpoint string
	var body []byte
	var err error

	switch format {
	case formatGeminiNative:
		if prov.ID == ProviderOpenCode {
			endpoint = fmt.Sprintf("%s/models/%s", base, prov.Model)
		} else {
			endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, prov.Model)
		}
		if prov.APIKey != "" {
			headers["x-goog-api-key"] = prov.APIKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, 0.3)

	case formatAnthropic:
		endpoint = base + "/messages"
		if prov.APIKey != "" {
			headers["x-api-key"] = prov.APIKey
		}
		headers["anthropic-version"] = "2023-06-01"
		body, err = buildAnthropicRequest(prov.Model, systemPrompt, userPrompt)

	case formatOpenAIResponses:
		endpoint = base + "/responses"
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIResponsesRequest(prov.Model, systemPrompt+"\n\n"+userPrompt)

	default: // formatOpenAIChat
		endpoint = base
		if !strings.HasSuffix(base, "/chat/completions") {
			endpoint = base + "/chat/completions"
		}
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIChatRequest(prov.Model, systemPrompt, userPrompt, 0.3)
	}

	if err != nil {
		return "", nil, nil, err
	}
	return endpoint, headers, body, nil
}

// ---------------------------------------------------------------------------
// Response parsers (multi-format)
// ---------------------------------------------------------------------------

// extractResponseText tries all known response formats and returns the text.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if errObj, ok := raw["error"]; ok {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("API error: %s", msg)
			}
		}
		return "", fmt.Errorf("API error: %v", errObj)
	}

	// OpenAI chat: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	// Gemini: candidates[0].content.parts[0].text
	if candidates, ok := raw["candidates"].([]any); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]any); ok {
			if content, ok := candidate["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]any); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}

	// Anthropic: content[].type=="text" -> .text
	if contentArr, ok := raw["content"].([]any); ok {
		for _, c := range contentArr {
			if block, ok := c.(map[string]any); ok && block["type"] == "text" {
				if text, ok := block["text"].(string); ok {
					return text, nil
				}
			}
		}
	}

	// OpenAI responses: output[].type=="message" -> .content[].type=="output_text" -> .text
	if output, ok := raw["output"].([]any); ok {
		for _, o := range output {
			item, ok := o.(map[string]any)
			if !ok || item["type"] != "message" {
				continue
			}
			contentArr, _ := item["content"].([]any)
			for _, c := range contentArr {
				if block, ok := c.(map[string]any); ok && block["type"] == "output_text" {
					if text, ok := block["text"].(string); ok {
						return text, nil
					}
				}
			}
		}
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// parseRetryDelay extracts the retry delay from a 429 response body.
// Looks for Google's RetryInfo detail with retryDelay field.
// Returns the delay to wait, defaulting to 60s + 5s buffer.
func parseRetryDelay(body []byte) time.Duration {
	const defaultDelay = 65 * time.Second

	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return defaultDelay
	}

	for _, detail := range errResp.Error.Details {
		if strings.Contains(detail.Type, "RetryInfo") && detail.RetryDelay != "" {
			d := strings.TrimSuffix(detail.RetryDelay, "s")
			if secs, err := strconv.ParseFloat(d, 64); err == nil {
				return time.Duration(secs*1000)*time.Millisecond + 5*time.Second
			}
		}
	}
	return defaultDelay
}

// ---------------------------------------------------------------------------
// Provider call with retries
// ---------------------------------------------------------------------------

// Backoff schedule, swapped out in tests.
var (
	retryWait = func(attempt int) time.Duration {
		return time.Duration(math.Pow(2, float64(attempt))) * time.Second
	}
	rateLimitWait = parseRetryDelay
)

// callProvider sends a prompt to the provider and returns the response text.
// Transport errors and 5xx responses are retried with exponential backoff,
// 429 responses after the delay the provider asks for.
func callProvider(ctx context.Context, prov Provider, systemPrompt, userPrompt string, maxRetries int, verbose bool) (string, error) {
	format := formatFor(prov)
	endpoint, headers, body, err := buildHTTPRequest(prov, systemPrompt, userPrompt, format)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	client := makeHTTPClient(prov.Proxy, prov.Timeout)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		if verbose {
			log.Printf("[DEBUG] %s attempt %d: POST %s", prov.Name, attempt+1, endpoint)
		}

		resp, err := client.Do(req)
		if err != nil {
			if attempt < maxRetries {
				if err := sleep(ctx, retryWait(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("API request failed: %w", err)
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt < maxRetries {
				delay := rateLimitWait(respBody)
				if verbose {
					log.Printf("[WARN] 429 rate limited, waiting %v before retry (attempt %d/%d)", delay, attempt+1, maxRetries)
				}
				if err := sleep(ctx, delay); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("rate limited after %d retries: %s", maxRetries, truncate(string(respBody), 500))
		}

		if resp.StatusCode != http.StatusOK {
			if attempt < maxRetries && resp.StatusCode >= 500 {
				if err := sleep(ctx, retryWait(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
		}

		return extractResponseText(respBody)
	}

	return "", fmt.Errorf("exhausted all %d retries", maxRetries)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Translation response parsing
// ---------------------------------------------------------------------------

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseTranslations extracts a JSON array of strings from the AI response text.
func parseTranslations(content string, expected int) ([]string, error) {
	content = strings.TrimSpace(content)

	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	startIdx := strings.Index(content, "[")
	endIdx := strings.LastIndex(content, "]")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var translations []string
	if err := json.Unmarshal([]byte(content), &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON array: %w\nResponse: %s", err, truncate(content, 300))
	}
	if len(translations) == 0 {
		return nil, fmt.Errorf("got 0 translations, expected %d", expected)
	}
	return translations, nil
}

// escapeForPrompt prepares a string for inclusion in the AI prompt.
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return fmt.Sprintf(`"%s"`, s)
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
