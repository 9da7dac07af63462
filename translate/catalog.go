package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// ErrNoCatalog is wrapped when no PO catalog exists for a language.
var ErrNoCatalog = errors.New("no catalog for language")

// Catalog translates by looking strings up in gettext PO files named
// <dir>/<lang>.po (falling back to the base language, e.g. fr.po for
// fr-CA). Strings missing from the catalog pass through unchanged.
type Catalog struct {
	dir    string
	loaded map[string]*gotext.Po
}

// NewCatalog returns a Catalog reading from dir. Files are parsed lazily.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir, loaded: make(map[string]*gotext.Po)}
}

// Translate implements Translator.
func (c *Catalog) Translate(_ context.Context, texts []string, lang string) ([]string, error) {
	po, err := c.catalog(lang)
	if err != nil {
		return nil, &TranslationError{Lang: lang, Err: err}
	}

	out := make([]string, len(texts))
	for i, s := range texts {
		if s == "" {
			continue
		}
		out[i] = po.Get(s)
	}
	return out, nil
}

func (c *Catalog) catalog(lang string) (*gotext.Po, error) {
	if po, ok := c.loaded[lang]; ok {
		return po, nil
	}

	for _, name := range candidateNames(lang) {
		path := filepath.Join(c.dir, name+".po")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		po := gotext.NewPo()
		po.ParseFile(path)
		c.loaded[lang] = po
		return po, nil
	}
	return nil, fmt.Errorf("%w %s in %s", ErrNoCatalog, lang, c.dir)
}

// candidateNames lists file stems to try for lang: the code as given, its
// underscore form, and the base language.
func candidateNames(lang string) []string {
	names := []string{lang}
	if u := strings.ReplaceAll(lang, "-", "_"); u != lang {
		names = append(names, u)
	}
	if base, ok := baseLanguage(lang); ok && base.String() != lang {
		names = append(names, base.String())
	}
	return names
}
