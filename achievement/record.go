// Package achievement holds the in-memory achievement records and the CSV
// loader that produces them.
package achievement

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Record is one achievement row from the CSV export.
type Record struct {
	// ID is the vendor identifier, unique per app on the backend.
	ID string
	// Title doubles as the reference name and the localized name.
	Title string
	// Points awarded for earning the achievement.
	Points int
	// Description is shown before the achievement is earned.
	Description string
	// EarnedDescription is shown after the achievement is earned.
	EarnedDescription string
	// ImageName is the image file name relative to the image root.
	ImageName string
	// Repeatable marks achievements that can be earned more than once.
	Repeatable bool
	// Hidden achievements are not shown before they are earned.
	Hidden bool
}

// Localized returns a copy of r carrying translated text. Everything else,
// including the image name, is kept as is.
func (r Record) Localized(title, description, earnedDescription string) Record {
	r.Title = title
	r.Description = description
	r.EarnedDescription = earnedDescription
	return r
}

// Texts returns the translatable fields in the order Localized expects them.
func (r Record) Texts() []string {
	return []string{r.Title, r.Description, r.EarnedDescription}
}

// ImagePath joins the image root directory with the record's image name.
func (r Record) ImagePath(root string) string {
	return filepath.Join(root, r.ImageName)
}

// ShowBeforeEarned is the backend's inverse of Hidden.
func (r Record) ShowBeforeEarned() bool {
	return !r.Hidden
}

var headerSuffixPattern = regexp.MustCompile(`\(([^)]+)\)$`)

// ImageSuffix extracts the parenthesized suffix at the end of an image
// column header, e.g. ".png" from "Image name (.png)". Returns "" when the
// header carries no hint.
func ImageSuffix(header string) string {
	m := headerSuffixPattern.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	return m[1]
}

// WithImageSuffix appends suffix to name unless name already ends with it.
func WithImageSuffix(name, suffix string) string {
	if suffix == "" || strings.HasSuffix(name, suffix) {
		return name
	}
	return name + suffix
}
