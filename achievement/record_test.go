package achievement

import (
	"path/filepath"
	"testing"
)

func TestImageSuffix(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Image name (.png)", ".png"},
		{"Image name (png)", "png"},
		{"Image name", ""},
		{"Image (.png) name", ""},
	}
	for _, tc := range cases {
		if got := ImageSuffix(tc.header); got != tc.want {
			t.Fatalf("ImageSuffix(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestWithImageSuffixIsIdempotent(t *testing.T) {
	for _, name := range []string{"badge", "badge.png", "", "badge.PNG"} {
		once := WithImageSuffix(name, ".png")
		twice := WithImageSuffix(once, ".png")
		if once != twice {
			t.Fatalf("WithImageSuffix(%q) not idempotent: %q then %q", name, once, twice)
		}
	}
	if got := WithImageSuffix("badge", ""); got != "badge" {
		t.Fatalf("WithImageSuffix with empty suffix = %q, want badge", got)
	}
}

func TestLocalizedKeepsNonTextFields(t *testing.T) {
	r := Record{ID: "a", Title: "Win", Points: 5, Description: "d", EarnedDescription: "e", ImageName: "a.png", Hidden: true}
	l := r.Localized("Gagner", "dd", "ee")

	if l.Title != "Gagner" || l.Description != "dd" || l.EarnedDescription != "ee" {
		t.Fatalf("Localized text = %#v", l)
	}
	if l.ID != r.ID || l.ImageName != r.ImageName || l.Points != r.Points || l.Hidden != r.Hidden {
		t.Fatalf("Localized changed non-text fields: %#v", l)
	}
	if r.Title != "Win" {
		t.Fatalf("Localized mutated the original: %#v", r)
	}
	if l.ShowBeforeEarned() {
		t.Fatal("hidden record should not show before earned")
	}
}

func TestImagePath(t *testing.T) {
	r := Record{ImageName: "a.png"}
	if got, want := r.ImagePath("/icons"), filepath.Join("/icons", "a.png"); got != want {
		t.Fatalf("ImagePath() = %q, want %q", got, want)
	}
}
