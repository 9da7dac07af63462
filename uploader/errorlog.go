package uploader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/minios-linux/gcupload/ascauth"
	"github.com/minios-linux/gcupload/gamecenter"
	"github.com/minios-linux/gcupload/translate"
	"go.uber.org/multierr"
)

// Operations recorded by the runner in addition to the gamecenter ones.
const (
	OpIssueToken = "issue token"
	OpTranslate  = "translate"
	OpReadImage  = "read image"
)

// Entry is one recorded failure.
type Entry struct {
	// Op is the failed operation, e.g. gamecenter.OpCreateLocalization.
	Op string
	// Context identifies the unit of work: achievement id, locale, file path.
	Context string
	Err     error
}

// Kind classifies Err: remote, transport, translation, auth or file.
func (e Entry) Kind() string {
	var (
		remote    *gamecenter.RemoteError
		transport *gamecenter.TransportError
		trErr     *translate.TranslationError
		authErr   *ascauth.AuthError
	)
	switch {
	case errors.As(e.Err, &remote):
		return fmt.Sprintf("remote (status %d)", remote.Status)
	case errors.As(e.Err, &transport):
		return "transport"
	case errors.As(e.Err, &trErr):
		return "translation"
	case errors.As(e.Err, &authErr):
		return "auth"
	case errors.Is(e.Err, os.ErrNotExist), errors.Is(e.Err, os.ErrPermission):
		return "file"
	}
	return "error"
}

// Body returns the raw response body of a remote failure, or "".
func (e Entry) Body() string {
	var remote *gamecenter.RemoteError
	if errors.As(e.Err, &remote) {
		return remote.Body
	}
	return ""
}

// String renders the entry as it appears in the error file.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", e.Op, e.Context)
	fmt.Fprintf(&b, "kind: %s\n", e.Kind())
	fmt.Fprintf(&b, "error: %v", e.Err)
	if body := e.Body(); body != "" {
		fmt.Fprintf(&b, "\nbody:\n%s", body)
	}
	return b.String()
}

// ErrorLog collects the failures of one run.
type ErrorLog struct {
	entries []Entry
	err     error
}

// Add records a failure.
func (l *ErrorLog) Add(e Entry) {
	l.entries = append(l.entries, e)
	l.err = multierr.Append(l.err, fmt.Errorf("%s [%s]: %w", e.Op, e.Context, e.Err))
}

// Len returns the number of recorded failures.
func (l *ErrorLog) Len() int { return len(l.entries) }

// Entries returns the recorded failures in order.
func (l *ErrorLog) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Err combines every recorded failure into one error, or nil.
func (l *ErrorLog) Err() error { return l.err }

// String joins the entries with a blank line between them.
func (l *ErrorLog) String() string {
	parts := make([]string, len(l.entries))
	for i, e := range l.entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n\n")
}

// WriteFile writes the log to path. Nothing is written, and false is
// returned, when the log is empty.
func (l *ErrorLog) WriteFile(path string) (bool, error) {
	if l.Len() == 0 {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(l.String()+"\n"), 0644); err != nil {
		return false, fmt.Errorf("writing error log %s: %w", path, err)
	}
	return true, nil
}
