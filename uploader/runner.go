// Package uploader drives one upload run: it walks the achievement records
// in order, creates each achievement with its localizations, and pushes the
// achievement image for every localization through the reserve, upload and
// commit steps. Failures past the initial detail lookup are recorded and
// the run moves on to the next unit of work.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minios-linux/gcupload/achievement"
	"github.com/minios-linux/gcupload/gamecenter"
	"github.com/minios-linux/gcupload/translate"
)

// Backend is the subset of the App Store Connect client the runner uses.
type Backend interface {
	Authorize(token string)
	GameCenterDetailID(ctx context.Context, appID string) (string, error)
	CreateAchievement(ctx context.Context, detailID string, attrs gamecenter.AchievementAttributes) (string, error)
	CreateLocalization(ctx context.Context, achievementID string, attrs gamecenter.LocalizationAttributes) (string, error)
	ReserveImage(ctx context.Context, localizationID, fileName string, fileSize int64) (*gamecenter.ImageReservation, error)
	UploadImage(ctx context.Context, op gamecenter.UploadOperation, data []byte) error
	CommitImage(ctx context.Context, reservationID string) error
}

// TokenIssuer mints bearer tokens.
type TokenIssuer interface {
	Issue() (string, error)
}

// Language pairs a translator language code with the locale the
// localization is created under.
type Language struct {
	Lang   string
	Locale string
}

// DefaultRefreshEvery is the token reissue interval in records.
const DefaultRefreshEvery = 10

// Options configures a run.
type Options struct {
	AppID     string
	Languages []Language
	// ImageRoot is joined with each record's image name.
	ImageRoot string
	// RefreshEvery reissues the token before every record whose 1-based
	// index is a multiple of it.
	RefreshEvery int
	// ErrorsFile receives the error log when the run recorded failures.
	// Empty disables writing.
	ErrorsFile string

	// OnLog receives progress messages.
	OnLog func(format string, args ...any)
	// OnError is called for every recorded failure.
	OnError func(e Entry)
}

// Report summarizes a run.
type Report struct {
	Records       int
	Achievements  int
	Localizations int
	Images        int
	Errors        *ErrorLog
	// ErrorsFile is the path the error log was written to, or "".
	ErrorsFile string
}

// ErrNoDetailID is returned when the app's Game Center detail cannot be
// fetched. No achievement is created in that case.
var ErrNoDetailID = errors.New("game center detail unavailable")

// Runner executes upload runs.
type Runner struct {
	backend    Backend
	tokens     TokenIssuer
	translator translate.Translator
	opts       Options
}

// New returns a Runner. A nil translator leaves text untranslated.
func New(backend Backend, tokens TokenIssuer, translator translate.Translator, opts Options) *Runner {
	if translator == nil {
		translator = translate.Noop{}
	}
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = DefaultRefreshEvery
	}
	return &Runner{backend: backend, tokens: tokens, translator: translator, opts: opts}
}

func (r *Runner) log(format string, args ...any) {
	if r.opts.OnLog != nil {
		r.opts.OnLog(format, args...)
	}
}

// run holds the mutable state of a single Run call.
type run struct {
	*Runner
	report *Report
}

func (r *run) fail(op, where string, err error) {
	e := Entry{Op: op, Context: where, Err: err}
	r.report.Errors.Add(e)
	if r.opts.OnError != nil {
		r.opts.OnError(e)
	}
}

// Run uploads records. The returned error is non-nil only for failures that
// stop the whole run: a token that cannot be issued, a missing Game Center
// detail, a cancelled context, or an unwritable error file. Per-record
// failures are in Report.Errors.
func (r *Runner) Run(ctx context.Context, records []achievement.Record) (*Report, error) {
	st := &run{Runner: r, report: &Report{Records: len(records), Errors: &ErrorLog{}}}
	err := st.execute(ctx, records)
	if werr := st.writeErrors(); werr != nil {
		return st.report, errors.Join(err, werr)
	}
	return st.report, err
}

func (r *run) execute(ctx context.Context, records []achievement.Record) error {
	if err := r.authorize(); err != nil {
		return err
	}

	detailID, err := r.backend.GameCenterDetailID(ctx, r.opts.AppID)
	if err != nil {
		r.fail(gamecenter.OpGetDetail, "app "+r.opts.AppID, err)
		return fmt.Errorf("%w: %v", ErrNoDetailID, err)
	}
	r.log("Game Center detail: %s", detailID)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		index := i + 1
		if index%r.opts.RefreshEvery == 0 {
			if err := r.authorize(); err != nil {
				return err
			}
		}
		r.log("[%d/%d] %s", index, len(records), rec.ID)
		r.uploadRecord(ctx, detailID, rec)
	}
	return nil
}

func (r *run) authorize() error {
	token, err := r.tokens.Issue()
	if err != nil {
		r.fail(OpIssueToken, "app "+r.opts.AppID, err)
		return fmt.Errorf("issuing token: %w", err)
	}
	r.backend.Authorize(token)
	return nil
}

func (r *run) uploadRecord(ctx context.Context, detailID string, rec achievement.Record) {
	achievementID, err := r.backend.CreateAchievement(ctx, detailID, gamecenter.AchievementAttributes{
		Points:           rec.Points,
		ReferenceName:    rec.Title,
		Repeatable:       rec.Repeatable,
		ShowBeforeEarned: rec.ShowBeforeEarned(),
		VendorIdentifier: rec.ID,
	})
	if err != nil {
		r.fail(gamecenter.OpCreateAchievement, "achievement "+rec.ID, err)
		return
	}
	r.report.Achievements++

	for _, lang := range r.opts.Languages {
		r.uploadLocalization(ctx, achievementID, rec, lang)
	}
}

func (r *run) uploadLocalization(ctx context.Context, achievementID string, rec achievement.Record, lang Language) {
	where := fmt.Sprintf("achievement %s, locale %s", rec.ID, lang.Locale)

	texts, err := r.translator.Translate(ctx, rec.Texts(), lang.Lang)
	if err == nil && len(texts) != 3 {
		err = &translate.TranslationError{Lang: lang.Lang, Err: fmt.Errorf("got %d texts, expected 3", len(texts))}
	}
	if err != nil {
		r.fail(OpTranslate, where, err)
		return
	}
	localized := rec.Localized(texts[0], texts[1], texts[2])

	localizationID, err := r.backend.CreateLocalization(ctx, achievementID, gamecenter.LocalizationAttributes{
		AfterEarnedDescription:  localized.EarnedDescription,
		BeforeEarnedDescription: localized.Description,
		Locale:                  lang.Locale,
		Name:                    localized.Title,
	})
	if err != nil {
		r.fail(gamecenter.OpCreateLocalization, where, err)
		return
	}
	r.report.Localizations++

	r.uploadImage(ctx, localizationID, rec.ImagePath(r.opts.ImageRoot), lang.Locale)
}

// uploadImage runs reserve, upload and commit for one localization. Each
// failure is recorded and ends the pipeline for this localization only.
func (r *run) uploadImage(ctx context.Context, localizationID, path, locale string) {
	where := fmt.Sprintf("file %s, locale %s", path, locale)

	data, err := os.ReadFile(path)
	if err != nil {
		r.fail(OpReadImage, where, err)
		return
	}

	reservation, err := r.backend.ReserveImage(ctx, localizationID, filepath.Base(path), int64(len(data)))
	if err != nil {
		r.fail(gamecenter.OpReserveImage, where, err)
		return
	}

	for _, op := range reservation.UploadOperations {
		if err := r.backend.UploadImage(ctx, op, data); err != nil {
			r.fail(gamecenter.OpUploadImage, where, err)
			return
		}
	}

	if err := r.backend.CommitImage(ctx, reservation.ID); err != nil {
		r.fail(gamecenter.OpCommitImage, where, err)
		return
	}
	r.report.Images++
}

func (r *run) writeErrors() error {
	if r.opts.ErrorsFile == "" {
		return nil
	}
	written, err := r.report.Errors.WriteFile(r.opts.ErrorsFile)
	if err != nil {
		return err
	}
	if written {
		r.report.ErrorsFile = r.opts.ErrorsFile
	}
	return nil
}
