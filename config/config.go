// Package config loads .gcupload.yaml, the per-project description of an
// achievement upload: where the CSV and images live, which App Store
// Connect key and app to use, the target locales and the translator.
//
// Values are layered, highest priority first: command-line flags (applied
// by the caller), GCUPLOAD_* environment variables (optionally from a .env
// file next to the config), the YAML file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/minios-linux/gcupload/achievement"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .gcupload.yaml structure.
type File struct {
	// CSV is the achievements export.
	CSV string `yaml:"csv"`
	// Footer drops the last CSV row (a totals row in the sheet template).
	Footer bool `yaml:"footer"`
	// Images is the directory holding achievement images.
	Images string `yaml:"images"`
	// ErrorsFile receives the run's error log when any error occurred.
	ErrorsFile string `yaml:"errors_file"`
	// SourceLang is the language the CSV is written in.
	SourceLang string `yaml:"source_lang"`
	// AppID is the App Store Connect app identifier.
	AppID string `yaml:"app_id"`
	// APIBaseURL is the App Store Connect API root.
	APIBaseURL string `yaml:"api_base_url"`

	Token      Token               `yaml:"token"`
	Columns    achievement.Columns `yaml:"columns,omitempty"`
	TrueValue  string              `yaml:"true_value"`
	Languages  []Language          `yaml:"languages"`
	Translator Translator          `yaml:"translator"`

	// Dir is the directory the file was loaded from; relative paths are
	// resolved against it.
	Dir string `yaml:"-"`
}

// Token describes the App Store Connect API key.
type Token struct {
	KeyID string `yaml:"key_id"`
	// IssuerID is empty for individual keys.
	IssuerID string        `yaml:"issuer_id"`
	KeyFile  string        `yaml:"key_file"`
	Lifespan time.Duration `yaml:"lifespan"`
	// RefreshEvery reissues the token before every Nth achievement.
	RefreshEvery int `yaml:"refresh_every"`
}

// Language pairs the code sent to the translator with the App Store locale
// the localization is created under.
type Language struct {
	Lang   string `yaml:"lang"`
	Locale string `yaml:"locale"`
}

func (l Language) String() string { return l.Lang + ":" + l.Locale }

// Translator selects the machine translation backend.
type Translator struct {
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model,omitempty"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	CatalogDir string        `yaml:"catalog_dir,omitempty"`
	Prompt     string        `yaml:"prompt,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	MaxRetries int           `yaml:"max_retries,omitempty"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".gcupload.yaml"

// Built-in defaults.
const (
	DefaultCSV          = "Achievements.csv"
	DefaultImages       = "Game kit icons"
	DefaultErrorsFile   = "gk_achievements_upload_errors.txt"
	DefaultAPIBaseURL   = "https://api.appstoreconnect.apple.com/v1"
	DefaultRefreshEvery = 10
	DefaultLifespan     = 10 * time.Minute
)

// DefaultLanguages are the target locales used when none are configured.
func DefaultLanguages() []Language {
	return []Language{
		{Lang: "en", Locale: "en-GB"},
		{Lang: "es", Locale: "es-ES"},
		{Lang: "fr", Locale: "fr-FR"},
		{Lang: "de", Locale: "de-DE"},
	}
}

// Default returns a File populated with built-in defaults.
func Default() *File {
	return &File{
		CSV:        DefaultCSV,
		Footer:     true,
		Images:     DefaultImages,
		ErrorsFile: DefaultErrorsFile,
		SourceLang: "en",
		APIBaseURL: DefaultAPIBaseURL,
		Token: Token{
			Lifespan:     DefaultLifespan,
			RefreshEvery: DefaultRefreshEvery,
		},
		Columns:   achievement.DefaultColumns(),
		TrueValue: achievement.DefaultTrueValue,
		Languages: DefaultLanguages(),
		Translator: Translator{
			Provider:   "none",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the config file at path over the defaults. A missing file is
// not an error: the defaults are returned with Dir set to the file's
// directory. The result is not yet validated or resolved.
func Load(path string) (*File, error) {
	f := Default()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f.Dir = filepath.Dir(abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Columns = f.Columns.WithDefaults()
	return f, nil
}

// LoadDotEnv loads dir/.env into the process environment if it exists.
// Variables already set are not overridden.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Environment variables consulted by ApplyEnv.
const (
	EnvAppID    = "GCUPLOAD_APP_ID"
	EnvKeyID    = "GCUPLOAD_KEY_ID"
	EnvIssuerID = "GCUPLOAD_ISSUER_ID"
	EnvKeyFile  = "GCUPLOAD_KEY_FILE"
)

// ApplyEnv overrides fields from GCUPLOAD_* variables that are set and
// non-empty.
func (f *File) ApplyEnv() {
	set := func(dst *string, name string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	set(&f.AppID, EnvAppID)
	set(&f.Token.KeyID, EnvKeyID)
	set(&f.Token.IssuerID, EnvIssuerID)
	set(&f.Token.KeyFile, EnvKeyFile)
}

// ---------------------------------------------------------------------------
// Resolution and validation
// ---------------------------------------------------------------------------

// Path expands ~ and resolves p against the config directory. Empty stays
// empty.
func (f *File) Path(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", p, err)
	}
	if filepath.IsAbs(expanded) || f.Dir == "" {
		return expanded, nil
	}
	return filepath.Join(f.Dir, expanded), nil
}

// Resolve rewrites every path field to an absolute path.
func (f *File) Resolve() error {
	for _, p := range []*string{&f.CSV, &f.Images, &f.ErrorsFile, &f.Token.KeyFile, &f.Translator.CatalogDir} {
		resolved, err := f.Path(*p)
		if err != nil {
			return err
		}
		*p = resolved
	}
	return nil
}

// Validate checks the fields every command needs: the CSV location, a sane
// refresh interval and well-formed language pairs.
func (f *File) Validate() error {
	if f.CSV == "" {
		return errors.New("csv: no achievements file configured")
	}
	if f.Token.RefreshEvery <= 0 {
		return fmt.Errorf("token.refresh_every: must be positive, got %d", f.Token.RefreshEvery)
	}
	if f.Token.Lifespan < 0 {
		return fmt.Errorf("token.lifespan: must not be negative, got %v", f.Token.Lifespan)
	}
	if _, err := language.Parse(f.SourceLang); err != nil {
		return fmt.Errorf("source_lang: %q is not a language tag: %w", f.SourceLang, err)
	}
	return ValidateLanguages(f.Languages)
}

// ValidateUpload additionally checks what talking to App Store Connect
// requires.
func (f *File) ValidateUpload() error {
	if err := f.Validate(); err != nil {
		return err
	}
	var missing []string
	if f.AppID == "" {
		missing = append(missing, "app_id ("+EnvAppID+")")
	}
	if f.Token.KeyID == "" {
		missing = append(missing, "token.key_id ("+EnvKeyID+")")
	}
	if f.Token.KeyFile == "" {
		missing = append(missing, "token.key_file ("+EnvKeyFile+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateLanguages checks that every pair carries a valid language code
// and locale, and that no locale appears twice.
func ValidateLanguages(langs []Language) error {
	if len(langs) == 0 {
		return errors.New("languages: at least one target locale is required")
	}
	seen := make(map[string]bool, len(langs))
	for i, l := range langs {
		if _, err := language.Parse(l.Lang); err != nil {
			return fmt.Errorf("languages[%d]: lang %q is not a language tag: %w", i, l.Lang, err)
		}
		if _, err := language.Parse(l.Locale); err != nil {
			return fmt.Errorf("languages[%d]: locale %q is not a language tag: %w", i, l.Locale, err)
		}
		if seen[l.Locale] {
			return fmt.Errorf("languages[%d]: duplicate locale %q", i, l.Locale)
		}
		seen[l.Locale] = true
	}
	return nil
}

// ParseLanguages parses the --lang flag syntax: a comma-separated list of
// lang:locale pairs. A bare locale ("fr-FR") uses its base language as the
// translator code.
func ParseLanguages(s string) ([]Language, error) {
	var langs []Language
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lang, locale, ok := strings.Cut(item, ":")
		if !ok {
			locale = item
			tag, err := language.Parse(item)
			if err != nil {
				return nil, fmt.Errorf("invalid locale %q: %w", item, err)
			}
			base, _ := tag.Base()
			lang = base.String()
		}
		lang, locale = strings.TrimSpace(lang), strings.TrimSpace(locale)
		if lang == "" || locale == "" {
			return nil, fmt.Errorf("invalid language pair %q (want lang:locale)", item)
		}
		langs = append(langs, Language{Lang: lang, Locale: locale})
	}
	if len(langs) == 0 {
		return nil, errors.New("no languages given")
	}
	return langs, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Save writes f as YAML to path, for `gcupload init`.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Summary lists the effective settings as key/value pairs for display.
func (f *File) Summary() [][2]string {
	issuer := f.Token.IssuerID
	if issuer == "" {
		issuer = "(individual key)"
	}
	langs := make([]string, len(f.Languages))
	for i, l := range f.Languages {
		langs[i] = l.String()
	}
	return [][2]string{
		{"CSV", f.CSV},
		{"Footer row", strconv.FormatBool(f.Footer)},
		{"Images", f.Images},
		{"App ID", f.AppID},
		{"Key ID", f.Token.KeyID},
		{"Issuer", issuer},
		{"Key file", f.Token.KeyFile},
		{"Languages", strings.Join(langs, ", ")},
		{"Translator", f.Translator.Provider},
		{"Errors file", f.ErrorsFile},
	}
}
