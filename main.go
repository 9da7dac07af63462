// gcupload: Game Center achievement uploader for App Store Connect with
// machine translation of achievement texts.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/minios-linux/gcupload/achievement"
	"github.com/minios-linux/gcupload/ascauth"
	"github.com/minios-linux/gcupload/config"
	"github.com/minios-linux/gcupload/gamecenter"
	"github.com/minios-linux/gcupload/langmeta"
	"github.com/minios-linux/gcupload/settings"
	"github.com/minios-linux/gcupload/translate"
	"github.com/minios-linux/gcupload/uploader"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gcupload",
		Short: "Upload Game Center achievements to App Store Connect",
		Long: `gcupload: Game Center achievement uploader.

Reads achievements from a CSV export, creates them in App Store Connect,
adds one localization per configured locale (machine-translated) and uploads
the achievement image for every localization.

Commands:
  init        Write a .gcupload.yaml with the default settings
  check       Validate the CSV and images without contacting App Store Connect
  upload      Create achievements, localizations and images
  token       Print an App Store Connect bearer token
  auth        Manage stored credentials

Translators:
  none           Keep the CSV text for every locale
  catalog        Look texts up in gettext <lang>.po files
  google         Google AI (Gemini) - API key
  groq           Groq - API key required
  opencode       OpenCode (multi-format dispatcher)
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "Config file (relative to --root)")

	root.AddCommand(
		newInitCmd(),
		newCheckCmd(),
		newUploadCmd(),
		newTokenCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gcupload version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// Config loading shared by the commands
// ---------------------------------------------------------------------------

// resolveConfigPath places a relative --config under --root.
func resolveConfigPath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// loadConfig reads .env and the config file and applies the environment.
// Paths are not resolved yet so flags can still override them.
func loadConfig() *config.File {
	if err := config.LoadDotEnv(rootDir); err != nil {
		logWarning("%v", err)
	}
	path := resolveConfigPath(rootDir, configPath)
	cfg, err := config.Load(path)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	if !fileExists(path) {
		logWarning("No %s found, using defaults (run 'gcupload init' to create one)", path)
	}
	cfg.ApplyEnv()
	return cfg
}

// absPath expands ~ and makes a flag path absolute against the working
// directory.
func absPath(p string) string {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return expanded
	}
	return abs
}

// fillTokenFromProfile sets token fields still empty after flags, env and
// config from a stored App Store Connect profile.
func fillTokenFromProfile(cfg *config.File, info *settings.Info) {
	if info == nil {
		return
	}
	if cfg.Token.KeyID == "" {
		cfg.Token.KeyID = info.KeyID
	}
	if cfg.Token.IssuerID == "" {
		cfg.Token.IssuerID = info.IssuerID
	}
	if cfg.Token.KeyFile == "" {
		cfg.Token.KeyFile = info.KeyFile
	}
}

func newIssuer(cfg *config.File) *ascauth.Issuer {
	return &ascauth.Issuer{
		KeyID:    cfg.Token.KeyID,
		IssuerID: cfg.Token.IssuerID,
		KeyFile:  cfg.Token.KeyFile,
		Lifespan: cfg.Token.Lifespan,
	}
}

func loadRecords(cfg *config.File) []achievement.Record {
	records, err := achievement.Load(cfg.CSV, achievement.LoadOptions{
		Columns:         cfg.Columns,
		TrueValue:       cfg.TrueValue,
		LastRowIsFooter: cfg.Footer,
	})
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	return records
}

// ---------------------------------------------------------------------------
// init (write a default .gcupload.yaml)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var (
		force bool
		appID string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .gcupload.yaml with default settings",
		Long: `Write a .gcupload.yaml in the project root populated with the default
settings: CSV and image locations, column names, target locales and the
translator. Edit it afterwards to match your project.`,
		Run: func(cmd *cobra.Command, args []string) {
			path := resolveConfigPath(rootDir, configPath)
			if fileExists(path) && !force {
				logError("%s already exists (use --force to overwrite)", path)
				os.Exit(1)
			}
			cfg := config.Default()
			cfg.AppID = appID
			if err := cfg.Save(path); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			logSuccess("Wrote %s", path)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().StringVar(&appID, "app-id", "", "App Store Connect app ID to record")

	return cmd
}

// ---------------------------------------------------------------------------
// check (offline validation)
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	var csvPath, images string
	var noFooter bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the CSV and images without uploading",
		Long: `Load the achievements CSV, list the records that would be uploaded and
report image files that are missing. Nothing is sent to App Store Connect.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if csvPath != "" {
				cfg.CSV = absPath(csvPath)
			}
			if images != "" {
				cfg.Images = absPath(images)
			}
			if noFooter {
				cfg.Footer = false
			}
			if err := cfg.Resolve(); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			if err := cfg.Validate(); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			runCheck(cfg)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Achievements CSV file")
	cmd.Flags().StringVar(&images, "images", "", "Directory holding the achievement images")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "The CSV has no footer row")

	return cmd
}

func runCheck(cfg *config.File) {
	printSummary(cfg)

	records := loadRecords(cfg)
	logInfo("%d achievements in %s", len(records), cfg.CSV)

	idWidth := len("ID")
	for _, r := range records {
		idWidth = max(idWidth, len(r.ID))
	}
	fmt.Printf("\n  %-*s  %6s  %-5s  %s\n", idWidth, "ID", "POINTS", "FLAGS", "TITLE")
	total := 0
	for _, r := range records {
		fmt.Printf("  %-*s  %6d  %-5s  %s\n", idWidth, r.ID, r.Points, recordFlags(r), r.Title)
		total += r.Points
	}
	fmt.Printf("  %-*s  %6d\n\n", idWidth, "", total)

	for _, l := range cfg.Languages {
		if !langmeta.IsGameCenterLocale(l.Locale) {
			logWarning("Locale %s is not a Game Center locale", l.Locale)
		}
	}

	missing := uploader.MissingImages(records, cfg.Images)
	if len(missing) > 0 {
		for _, p := range missing {
			logError("Missing image: %s", p)
		}
		os.Exit(1)
	}
	logSuccess("All %d images found in %s", len(records), cfg.Images)
}

// recordFlags renders R for repeatable and H for hidden.
func recordFlags(r achievement.Record) string {
	flags := ""
	if r.Repeatable {
		flags += "R"
	}
	if r.Hidden {
		flags += "H"
	}
	if flags == "" {
		return "-"
	}
	return flags
}

func printSummary(cfg *config.File) {
	fmt.Fprintf(os.Stderr, "\n%sConfiguration%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, kv := range cfg.Summary() {
		value := kv[1]
		if value == "" {
			value = colorRed + "(not set)" + colorReset
		}
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", kv[0], value)
	}
	fmt.Fprintln(os.Stderr)
}

// ---------------------------------------------------------------------------
// upload
// ---------------------------------------------------------------------------

type uploadArgs struct {
	csv        string
	images     string
	footer     bool
	keyFile    string
	keyID      string
	issuerID   string
	appID      string
	profile    string
	langs      string
	errorsFile string
	apiBaseURL string

	provider   string
	model      string
	apiKey     string
	baseURL    string
	catalogDir string
	prompt     string
	proxy      string
	timeout    time.Duration
	maxRetries int
	verbose    bool
}

func newUploadCmd() *cobra.Command {
	var a uploadArgs

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Create achievements, localizations and images",
		Long: `Create every achievement from the CSV in App Store Connect, add one
localization per configured locale and upload the achievement image for each
localization.

Failures on single achievements, locales or images are collected and the run
continues. When any failure occurred the collected errors are written to the
errors file and the command exits with status 1.

Examples:
  gcupload upload
  gcupload upload --lang en:en-GB,fr:fr-FR --provider groq --model llama-3.3-70b-versatile
  gcupload upload --key-file ~/keys/AuthKey_ABC123.p8 --key-id ABC123 --app-id 6739331151`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if err := applyUploadFlags(cfg, a, cmd.Flags().Changed); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			fillTokenFromProfile(cfg, settings.GetASCKey(a.profile))
			if err := cfg.Resolve(); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			if err := cfg.ValidateUpload(); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			runUpload(cfg, a)
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.csv, "csv", "", "Achievements CSV file")
	f.StringVar(&a.images, "images", "", "Directory holding the achievement images")
	f.BoolVar(&a.footer, "footer", true, "The last CSV row is a footer and is skipped")
	f.StringVar(&a.keyFile, "key-file", "", "App Store Connect private key (.p8)")
	f.StringVar(&a.keyID, "key-id", "", "App Store Connect key ID")
	f.StringVar(&a.issuerID, "issuer-id", "", "Issuer ID (team keys only)")
	f.StringVar(&a.appID, "app-id", "", "App Store Connect app ID")
	f.StringVar(&a.profile, "profile", settings.DefaultProfile, "Stored App Store Connect key profile")
	f.StringVar(&a.langs, "lang", "", "Target languages as lang:locale pairs (e.g. en:en-GB,fr:fr-FR)")
	f.StringVar(&a.errorsFile, "errors-file", "", "File receiving the error log")
	f.StringVar(&a.apiBaseURL, "api-url", "", "App Store Connect API base URL")

	f.StringVar(&a.provider, "provider", "", "Translator: none, catalog, google, groq, opencode, ollama, custom-openai")
	f.StringVar(&a.model, "model", "", "AI model name")
	f.StringVar(&a.apiKey, "api-key", "", "Translator API key (or GCUPLOAD_API_KEY)")
	f.StringVar(&a.baseURL, "base-url", "", "Translator endpoint URL")
	f.StringVar(&a.catalogDir, "catalog-dir", "", "Directory with <lang>.po catalogs (catalog translator)")
	f.StringVar(&a.prompt, "prompt", "", "Custom system prompt ({{sourceLang}}, {{targetLang}} are substituted)")
	f.StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	f.DurationVar(&a.timeout, "timeout", 0, "Per-request timeout for translator calls")
	f.IntVar(&a.maxRetries, "max-retries", 0, "Retries on translator 429/5xx responses")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "Log every HTTP request")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"none", "catalog", "google", "groq", "opencode", "ollama", "custom-openai"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// applyUploadFlags copies explicitly set flags over cfg.
func applyUploadFlags(cfg *config.File, a uploadArgs, changed func(string) bool) error {
	setPath := func(dst *string, v string) {
		if v != "" {
			*dst = absPath(v)
		}
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setPath(&cfg.CSV, a.csv)
	setPath(&cfg.Images, a.images)
	setPath(&cfg.ErrorsFile, a.errorsFile)
	setPath(&cfg.Token.KeyFile, a.keyFile)
	setPath(&cfg.Translator.CatalogDir, a.catalogDir)
	set(&cfg.Token.KeyID, a.keyID)
	set(&cfg.Token.IssuerID, a.issuerID)
	set(&cfg.AppID, a.appID)
	set(&cfg.APIBaseURL, a.apiBaseURL)
	set(&cfg.Translator.Provider, a.provider)
	set(&cfg.Translator.Model, a.model)
	set(&cfg.Translator.BaseURL, a.baseURL)
	set(&cfg.Translator.Prompt, a.prompt)

	if changed("footer") {
		cfg.Footer = a.footer
	}
	if a.timeout > 0 {
		cfg.Translator.Timeout = a.timeout
	}
	if a.maxRetries > 0 {
		cfg.Translator.MaxRetries = a.maxRetries
	}
	if a.langs != "" {
		langs, err := config.ParseLanguages(a.langs)
		if err != nil {
			return fmt.Errorf("--lang: %w", err)
		}
		cfg.Languages = langs
	}
	return nil
}

func newTranslator(cfg *config.File, a uploadArgs) (translate.Translator, error) {
	t := cfg.Translator
	baseURL := t.BaseURL
	if baseURL == "" && t.Provider == translate.ProviderCustomOpenAI {
		baseURL = settings.GetBaseURL(t.Provider)
	}
	return translate.New(translate.Config{
		Provider:     t.Provider,
		Model:        t.Model,
		APIKey:       settings.ResolveAPIKey(t.Provider, a.apiKey),
		BaseURL:      baseURL,
		Proxy:        a.proxy,
		Timeout:      t.Timeout,
		MaxRetries:   t.MaxRetries,
		CatalogDir:   t.CatalogDir,
		SourceLang:   cfg.SourceLang,
		SystemPrompt: t.Prompt,
		Verbose:      a.verbose,
		OnLog: func(format string, args ...any) {
			if a.verbose {
				logInfo(format, args...)
			}
		},
	})
}

func runUpload(cfg *config.File, a uploadArgs) {
	printSummary(cfg)

	records := loadRecords(cfg)
	if len(records) == 0 {
		logWarning("No achievements in %s", cfg.CSV)
		return
	}
	logInfo("Loaded %d achievements from %s", len(records), cfg.CSV)

	for _, l := range cfg.Languages {
		if !langmeta.IsGameCenterLocale(l.Locale) {
			logWarning("Locale %s is not a Game Center locale, App Store Connect may reject it", l.Locale)
		}
	}
	if missing := uploader.MissingImages(records, cfg.Images); len(missing) > 0 {
		logWarning("%d image(s) missing, their uploads will fail (run 'gcupload check' for the list)", len(missing))
	}

	tr, err := newTranslator(cfg, a)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	client := gamecenter.New(gamecenter.Options{
		BaseURL: cfg.APIBaseURL,
		Proxy:   a.proxy,
		OnLog:   logInfo,
	})

	langs := make([]uploader.Language, len(cfg.Languages))
	for i, l := range cfg.Languages {
		langs[i] = uploader.Language{Lang: l.Lang, Locale: l.Locale}
	}

	// Setup signal handling for graceful cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, stopping after the current achievement...")
		cancel()
	}()

	runner := uploader.New(client, newIssuer(cfg), tr, uploader.Options{
		AppID:        cfg.AppID,
		Languages:    langs,
		ImageRoot:    cfg.Images,
		RefreshEvery: cfg.Token.RefreshEvery,
		ErrorsFile:   cfg.ErrorsFile,
		OnLog:        logInfo,
		OnError: func(e uploader.Entry) {
			logError("%s [%s]: %v", e.Op, e.Context, e.Err)
		},
	})

	report, err := runner.Run(ctx, records)
	printReport(report)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			logWarning("Upload interrupted")
		case errors.Is(err, uploader.ErrNoDetailID):
			logError("%v", err)
			logInfo("Enable Game Center for app %s in App Store Connect first", cfg.AppID)
		default:
			logError("%v", err)
		}
		os.Exit(1)
	}
	if report.Errors.Len() > 0 {
		os.Exit(1)
	}
	logSuccess("Upload complete!")
}

func printReport(r *uploader.Report) {
	if r == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "\n%sSummary%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  %-14s %d/%d\n", "Achievements", r.Achievements, r.Records)
	fmt.Fprintf(os.Stderr, "  %-14s %d\n", "Localizations", r.Localizations)
	fmt.Fprintf(os.Stderr, "  %-14s %d\n", "Images", r.Images)
	if n := r.Errors.Len(); n > 0 {
		fmt.Fprintf(os.Stderr, "  %-14s %s%d%s\n", "Errors", colorRed, n, colorReset)
		if r.ErrorsFile != "" {
			fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Error log", r.ErrorsFile)
		}
	} else {
		fmt.Fprintf(os.Stderr, "  %-14s %snone%s\n", "Errors", colorGreen, colorReset)
	}
	fmt.Fprintln(os.Stderr)
}

// ---------------------------------------------------------------------------
// token (print a bearer token)
// ---------------------------------------------------------------------------

func newTokenCmd() *cobra.Command {
	var keyFile, keyID, issuerID, profile string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an App Store Connect bearer token",
		Long: `Sign and print a bearer token with the configured key, for use with curl:

  curl -H "Authorization: Bearer $(gcupload token)" \
       https://api.appstoreconnect.apple.com/v1/apps`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if err := applyUploadFlags(cfg, uploadArgs{keyFile: keyFile, keyID: keyID, issuerID: issuerID}, func(string) bool { return false }); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			fillTokenFromProfile(cfg, settings.GetASCKey(profile))
			if err := cfg.Resolve(); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			token, err := newIssuer(cfg).Issue()
			if err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			fmt.Println(token)
		},
	}

	cmd.Flags().StringVar(&keyFile, "key-file", "", "App Store Connect private key (.p8)")
	cmd.Flags().StringVar(&keyID, "key-id", "", "App Store Connect key ID")
	cmd.Flags().StringVar(&issuerID, "issuer-id", "", "Issuer ID (team keys only)")
	cmd.Flags().StringVar(&profile, "profile", settings.DefaultProfile, "Stored App Store Connect key profile")

	return cmd
}

// ---------------------------------------------------------------------------
// auth (login / logout / list)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
		Long: `Manage stored credentials for App Store Connect and the AI translators.

App Store Connect:
  appstoreconnect  API key profile (key ID, issuer ID, .p8 key file)

API key providers (paste your key):
  google        Google AI Studio (Gemini API key)
  groq          Groq Cloud (free tier available)
  opencode      OpenCode proxy
  custom-openai Custom OpenAI-compatible endpoint

Examples:
  gcupload auth login                                Interactive selection
  gcupload auth login --provider appstoreconnect     Store the App Store Connect key
  gcupload auth login --provider groq                Store a Groq API key
  gcupload auth logout --provider groq               Remove the Groq API key
  gcupload auth logout                               Remove all credentials
  gcupload auth list                                 Show stored credentials`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

// allProviders is the ordered list of credential targets for the menu.
var allProviders = []struct {
	id   string
	name string
	desc string
}{
	{settings.DefaultProfile, "App Store Connect", "API key (.p8) for uploading"},
	{"google", "Google AI Studio", "Gemini API key, free tier available"},
	{"groq", "Groq Cloud", "fast inference, free tier available"},
	{"opencode", "OpenCode", "multi-provider proxy"},
	{"custom-openai", "Custom OpenAI", "any OpenAI-compatible endpoint"},
}

func knownProvider(id string) bool {
	for _, p := range allProviders {
		if p.id == id {
			return true
		}
	}
	return false
}

func newAuthLoginCmd() *cobra.Command {
	var provider, keyID, issuerID, keyFile string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store credentials for App Store Connect or a translator",
		Run: func(cmd *cobra.Command, args []string) {
			scanner := bufio.NewScanner(os.Stdin)

			if provider == "" {
				fmt.Fprintf(os.Stderr, "\n%sSelect credentials to configure%s\n", colorBlue, colorReset)
				fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
				for i, p := range allProviders {
					fmt.Fprintf(os.Stderr, "  %d) %-18s %s\n", i+1, p.name, p.desc)
				}
				fmt.Fprintf(os.Stderr, "\n  Choice: ")
				if !scanner.Scan() {
					logError("No input received")
					os.Exit(1)
				}
				var n int
				if _, err := fmt.Sscanf(strings.TrimSpace(scanner.Text()), "%d", &n); err != nil || n < 1 || n > len(allProviders) {
					logError("Invalid choice. Use: gcupload auth login --provider PROVIDER")
					os.Exit(1)
				}
				provider = allProviders[n-1].id
			}

			switch {
			case provider == settings.DefaultProfile:
				authLoginASC(scanner, keyID, issuerID, keyFile)
			case knownProvider(provider):
				authLoginAPIKey(scanner, provider)
			default:
				logError("Unknown provider '%s'. Run 'gcupload auth list' to see providers.", provider)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Credentials to configure")
	cmd.Flags().StringVar(&keyID, "key-id", "", "App Store Connect key ID (non-interactive)")
	cmd.Flags().StringVar(&issuerID, "issuer-id", "", "App Store Connect issuer ID (team keys)")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "App Store Connect private key file (non-interactive)")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		completions := make([]string, 0, len(allProviders))
		for _, p := range allProviders {
			completions = append(completions, fmt.Sprintf("%s\t%s", p.id, p.name))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// promptLine asks for a value, keeping current when the answer is empty.
func promptLine(scanner *bufio.Scanner, label, current string) string {
	if current != "" {
		fmt.Fprintf(os.Stderr, "  %s [%s]: ", label, current)
	} else {
		fmt.Fprintf(os.Stderr, "  %s: ", label)
	}
	if !scanner.Scan() {
		return current
	}
	if v := strings.TrimSpace(scanner.Text()); v != "" {
		return v
	}
	return current
}

func authLoginASC(scanner *bufio.Scanner, keyID, issuerID, keyFile string) {
	fmt.Fprintf(os.Stderr, "\n%sApp Store Connect API Key%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Create a key under Users and Access > Integrations in App Store Connect.\n")
	fmt.Fprintf(os.Stderr, "  Leave the issuer ID empty for an individual key.\n\n")

	existing := settings.GetASCKey("")
	if existing == nil {
		existing = &settings.Info{}
	}
	interactive := keyID == "" || keyFile == ""
	if interactive {
		keyID = promptLine(scanner, "Key ID", firstNonEmpty(keyID, existing.KeyID))
		issuerID = promptLine(scanner, "Issuer ID", firstNonEmpty(issuerID, existing.IssuerID))
		keyFile = promptLine(scanner, "Key file (.p8)", firstNonEmpty(keyFile, existing.KeyFile))
	}
	if keyID == "" || keyFile == "" {
		logError("Key ID and key file are required")
		os.Exit(1)
	}
	keyFile = absPath(keyFile)

	// Sign once so a wrong path or key is caught now.
	issuer := &ascauth.Issuer{KeyID: keyID, IssuerID: issuerID, KeyFile: keyFile}
	if _, err := issuer.Issue(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	if err := settings.SetASCKey("", keyID, issuerID, keyFile); err != nil {
		logError("Failed to save credentials: %v", err)
		os.Exit(1)
	}
	logSuccess("App Store Connect key %s saved to %s", keyID, settings.FilePath())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func authLoginAPIKey(scanner *bufio.Scanner, providerID string) {
	// Provider display info
	providerInfo := map[string]struct {
		name    string
		helpURL string
		example string
	}{
		"google": {
			name:    "Google AI Studio",
			helpURL: "https://aistudio.google.com/apikey",
			example: "gcupload upload --provider google --model gemini-2.5-flash",
		},
		"groq": {
			name:    "Groq Cloud",
			helpURL: "https://console.groq.com/keys",
			example: "gcupload upload --provider groq --model llama-3.3-70b-versatile",
		},
		"opencode": {
			name:    "OpenCode",
			example: "gcupload upload --provider opencode --model gemini-2.5-flash",
		},
		"custom-openai": {
			name:    "Custom OpenAI",
			example: "gcupload upload --provider custom-openai --model gpt-4o-mini",
		},
	}

	info := providerInfo[providerID]

	fmt.Fprintf(os.Stderr, "\n%s%s: API Key Setup%s\n", colorBlue, info.name, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintln(os.Stderr)

	if info.helpURL != "" {
		fmt.Fprintf(os.Stderr, "  Get your API key from: %s%s%s\n\n", colorGreen, info.helpURL, colorReset)
	}

	baseURL := ""
	if providerID == "custom-openai" {
		baseURL = promptLine(scanner, "Endpoint URL", settings.GetBaseURL(providerID))
		if baseURL == "" {
			logError("No endpoint URL provided")
			os.Exit(1)
		}
	}

	// Check if already configured
	existing := settings.GetAPIKey(providerID)
	if existing != "" {
		fmt.Fprintf(os.Stderr, "  Current key: %s%s%s\n", colorYellow, settings.MaskKey(existing), colorReset)
		fmt.Fprintf(os.Stderr, "  Enter new key to replace, or press Enter to keep: ")
	} else {
		fmt.Fprintf(os.Stderr, "  Enter API key: ")
	}

	if !scanner.Scan() {
		logError("No input received")
		os.Exit(1)
	}
	key := strings.TrimSpace(scanner.Text())

	if key == "" {
		key = existing
	}
	if key == "" && providerID != "custom-openai" {
		logError("No API key provided")
		os.Exit(1)
	}

	if err := settings.SetAPIKeyWithBaseURL(providerID, key, baseURL); err != nil {
		logError("Failed to save credentials: %v", err)
		os.Exit(1)
	}

	logSuccess("%s credentials saved", info.name)
	fmt.Fprintf(os.Stderr, "\n  You can now use: %s\n\n", info.example)
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long: `Remove stored credentials for one or all providers.

If --provider is not specified, ALL stored credentials are removed.

Examples:
  gcupload auth logout                               Remove all credentials
  gcupload auth logout --provider appstoreconnect    Remove the App Store Connect key
  gcupload auth logout --provider google             Remove only the Google API key`,
		Run: func(cmd *cobra.Command, args []string) {
			if provider != "" {
				if !knownProvider(provider) {
					logError("Unknown provider '%s'. Run 'gcupload auth list' to see providers.", provider)
					os.Exit(1)
				}
				if err := settings.Remove(provider); err != nil {
					logError("Failed to remove %s credentials: %v", provider, err)
					os.Exit(1)
				}
				logSuccess("%s credentials removed", provider)
				return
			}

			if err := settings.RemoveAll(); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			logSuccess("All stored credentials removed")
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to logout (default: all)")

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials and status",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stderr, "\n%sStored Credentials%s  (%s)\n", colorBlue, colorReset, settings.FilePath())
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

			fmt.Fprintf(os.Stderr, "\n  %sApp Store Connect%s\n", colorYellow, colorReset)
			if asc := settings.GetASCKey(""); asc != nil {
				kind := "individual key"
				if asc.IssuerID != "" {
					kind = "team key, issuer " + asc.IssuerID
				}
				fmt.Fprintf(os.Stderr, "  %-14s %sconfigured%s (key: %s, %s)\n", settings.DefaultProfile, colorGreen, colorReset, asc.KeyID, kind)
				fmt.Fprintf(os.Stderr, "  %14s key file: %s\n", "", asc.KeyFile)
			} else {
				fmt.Fprintf(os.Stderr, "  %-14s %snot configured%s\n", settings.DefaultProfile, colorRed, colorReset)
			}

			fmt.Fprintf(os.Stderr, "\n  %sAPI Key Providers%s\n", colorYellow, colorReset)
			for _, p := range allProviders[1:] {
				entry := settings.Get(p.id)
				switch {
				case entry != nil && entry.Key != "":
					status := fmt.Sprintf("%sconfigured%s (key: %s)", colorGreen, colorReset, settings.MaskKey(entry.Key))
					if entry.BaseURL != "" {
						status += fmt.Sprintf("\n  %14s endpoint: %s", "", entry.BaseURL)
					}
					fmt.Fprintf(os.Stderr, "  %-14s %s\n", p.id, status)
				case entry != nil && entry.BaseURL != "":
					// custom-openai may have just a URL, no key
					fmt.Fprintf(os.Stderr, "  %-14s %sconfigured%s (no key)\n  %14s endpoint: %s\n", p.id, colorGreen, colorReset, "", entry.BaseURL)
				default:
					fmt.Fprintf(os.Stderr, "  %-14s %snot configured%s\n", p.id, colorRed, colorReset)
				}
			}

			// Environment variables
			fmt.Fprintf(os.Stderr, "\n  %sEnvironment Variables%s\n", colorYellow, colorReset)
			for _, name := range []string{"GCUPLOAD_API_KEY", config.EnvKeyID, config.EnvIssuerID, config.EnvKeyFile, config.EnvAppID} {
				v := os.Getenv(name)
				switch {
				case v == "":
					fmt.Fprintf(os.Stderr, "  %-20s %snot set%s\n", name, colorRed, colorReset)
				case name == "GCUPLOAD_API_KEY":
					fmt.Fprintf(os.Stderr, "  %-20s %s%s%s (overrides stored keys)\n", name, colorGreen, settings.MaskKey(v), colorReset)
				default:
					fmt.Fprintf(os.Stderr, "  %-20s %s\n", name, v)
				}
			}
			fmt.Fprintln(os.Stderr)
		},
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fileExists returns true if the file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
