package langmeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "zh_hans", want: "zh-Hans"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		got := Resolve("en-GB")
		if got.Name != "English (UK)" || got.Flag == "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("normalized match", func(t *testing.T) {
		got := Resolve("pt_br")
		if got.Name != "Portuguese (Brazil)" || got.Flag == "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("base fallback", func(t *testing.T) {
		got := Resolve("fr-FR")
		if got.Name != "French" || got.Native != "Français" {
			t.Fatalf("unexpected fallback result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("zz-ZZ")
		if got.Name != "zz-ZZ" || got.Flag != "" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestDescribe(t *testing.T) {
	if got := Describe("de"); got != "German (de)" {
		t.Fatalf("Describe(de) = %q", got)
	}
	if got := Describe("xx"); got != "xx" {
		t.Fatalf("Describe(xx) = %q", got)
	}
}

func TestIsGameCenterLocale(t *testing.T) {
	cases := map[string]bool{
		"fr-FR":   true,
		"en_gb":   true,
		"zh-hans": true,
		"fr":      false,
		"xx-YY":   false,
	}
	for locale, want := range cases {
		if got := IsGameCenterLocale(locale); got != want {
			t.Fatalf("IsGameCenterLocale(%q) = %v, want %v", locale, got, want)
		}
	}
}
