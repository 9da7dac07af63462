package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/minios-linux/gcupload/achievement"
	"github.com/minios-linux/gcupload/config"
	"github.com/minios-linux/gcupload/settings"
)

func TestResolveConfigPath(t *testing.T) {
	if got := resolveConfigPath("/proj", ".gcupload.yaml"); got != filepath.Join("/proj", ".gcupload.yaml") {
		t.Fatalf("resolveConfigPath(relative) = %q", got)
	}
	if got := resolveConfigPath("/proj", "/etc/gc.yaml"); got != "/etc/gc.yaml" {
		t.Fatalf("resolveConfigPath(absolute) = %q", got)
	}
}

func TestApplyUploadFlags(t *testing.T) {
	cfg := config.Default()
	a := uploadArgs{
		csv:        "/data/ach.csv",
		keyID:      "FLAGKEY",
		appID:      "42",
		langs:      "fr:fr-FR,de:de-DE",
		provider:   "groq",
		footer:     false,
		maxRetries: 7,
	}
	changed := func(name string) bool { return name == "footer" }

	if err := applyUploadFlags(cfg, a, changed); err != nil {
		t.Fatalf("applyUploadFlags() error: %v", err)
	}
	if cfg.CSV != "/data/ach.csv" || cfg.Token.KeyID != "FLAGKEY" || cfg.AppID != "42" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Footer {
		t.Fatal("footer flag explicitly set to false was ignored")
	}
	want := []config.Language{{Lang: "fr", Locale: "fr-FR"}, {Lang: "de", Locale: "de-DE"}}
	if !reflect.DeepEqual(cfg.Languages, want) {
		t.Fatalf("Languages = %v, want %v", cfg.Languages, want)
	}
	if cfg.Translator.Provider != "groq" || cfg.Translator.MaxRetries != 7 {
		t.Fatalf("translator = %+v", cfg.Translator)
	}
	if cfg.Images != config.DefaultImages {
		t.Fatalf("unset flag changed Images to %q", cfg.Images)
	}
}

func TestApplyUploadFlagsKeepsFooterUnlessChanged(t *testing.T) {
	cfg := config.Default()
	if err := applyUploadFlags(cfg, uploadArgs{}, func(string) bool { return false }); err != nil {
		t.Fatalf("applyUploadFlags() error: %v", err)
	}
	if !cfg.Footer {
		t.Fatal("footer default overwritten by unset flag")
	}
}

func TestApplyUploadFlagsRejectsBadLanguages(t *testing.T) {
	cfg := config.Default()
	if err := applyUploadFlags(cfg, uploadArgs{langs: "fr:"}, func(string) bool { return false }); err == nil {
		t.Fatal("applyUploadFlags() accepted an empty locale")
	}
}

func TestFillTokenFromProfile(t *testing.T) {
	cfg := config.Default()
	cfg.Token.KeyID = "FROMCONFIG"
	fillTokenFromProfile(cfg, &settings.Info{Type: settings.TypeASC, KeyID: "STORED", IssuerID: "ISS", KeyFile: "/k.p8"})

	if cfg.Token.KeyID != "FROMCONFIG" {
		t.Fatalf("KeyID = %q, configured value should win", cfg.Token.KeyID)
	}
	if cfg.Token.IssuerID != "ISS" || cfg.Token.KeyFile != "/k.p8" {
		t.Fatalf("empty fields not filled: %+v", cfg.Token)
	}

	fillTokenFromProfile(cfg, nil)
}

func TestRecordFlags(t *testing.T) {
	cases := []struct {
		rec  achievement.Record
		want string
	}{
		{achievement.Record{}, "-"},
		{achievement.Record{Repeatable: true}, "R"},
		{achievement.Record{Hidden: true}, "H"},
		{achievement.Record{Repeatable: true, Hidden: true}, "RH"},
	}
	for _, tc := range cases {
		if got := recordFlags(tc.rec); got != tc.want {
			t.Fatalf("recordFlags(%+v) = %q, want %q", tc.rec, got, tc.want)
		}
	}
}

func TestKnownProvider(t *testing.T) {
	for _, id := range []string{settings.DefaultProfile, "google", "custom-openai"} {
		if !knownProvider(id) {
			t.Fatalf("knownProvider(%q) = false", id)
		}
	}
	if knownProvider("copilot") {
		t.Fatal("knownProvider(copilot) = true")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Fatalf("firstNonEmpty() = %q", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Fatalf("firstNonEmpty(empty) = %q", got)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("ok"), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}

	if !fileExists(filePath) {
		t.Fatalf("fileExists(file) = false, want true")
	}
	if fileExists(dir) {
		t.Fatalf("fileExists(directory) = true, want false")
	}
	if fileExists(filepath.Join(dir, "missing.txt")) {
		t.Fatalf("fileExists(missing) = true, want false")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"init": false, "check": false, "upload": false, "token": false, "auth": false, "version": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("subcommand %q not registered", name)
		}
	}
}
