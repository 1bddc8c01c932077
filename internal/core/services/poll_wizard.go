package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
	"github.com/vncsmyrnk/campuspoll/internal/debounce"
)

const WizardRedirectAfter = 300 * time.Millisecond

type WizardStep int

const (
	StepDetails WizardStep = iota + 1
	StepVoterRanges
	StepOptions
	StepReview
)

func (s WizardStep) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepVoterRanges:
		return "voter-ranges"
	case StepOptions:
		return "options"
	case StepReview:
		return "review"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

type RangeDraft struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PollDraft is everything the wizard collects before publishing.
type PollDraft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	IsPrivate   bool         `json:"is_private"`
	Ranges      []RangeDraft `json:"ranges"`
	Options     []string     `json:"options"`
}

// DefaultDraft is the form a new poll starts from.
func DefaultDraft(now time.Time) PollDraft {
	return PollDraft{
		Title:       "Poll Title",
		Description: "Poll Description",
		StartTime:   now,
		EndTime:     now.Add(24 * time.Hour),
		IsPrivate:   true,
		Ranges:      []RangeDraft{{Start: 2104001, End: 2104132}},
		Options:     []string{"Option 1", "Option 2"},
	}
}

func (d PollDraft) clone() PollDraft {
	d.Ranges = append([]RangeDraft{}, d.Ranges...)
	d.Options = append([]string{}, d.Options...)
	return d
}

func (d PollDraft) trimmedOptions() []string {
	return lo.Map(d.Options, func(o string, _ int) string { return strings.TrimSpace(o) })
}

func (d PollDraft) rollRanges() [][2]int {
	return lo.Map(d.Ranges, func(r RangeDraft, _ int) [2]int { return [2]int{r.Start, r.End} })
}

// SubmitReport says how far publishing got. PollID is set as soon as the
// poll itself exists, even when a later call failed.
type SubmitReport struct {
	PollID        uuid.UUID     `json:"poll_id"`
	Created       bool          `json:"created"`
	OptionsAdded  bool          `json:"options_added"`
	RangesAdded   bool          `json:"ranges_added"`
	Redirect      string        `json:"redirect,omitempty"`
	RedirectAfter time.Duration `json:"redirect_after,omitempty"`
}

// PollWizard walks a draft through details, voter ranges, options and
// review, then publishes it with one create call followed by the options and
// the ranges.
type PollWizard struct {
	polls    ports.PollAPI
	validate *validator.Validate
	log      zerolog.Logger
	delay    time.Duration

	mu        sync.Mutex
	step      WizardStep
	draft     PollDraft
	submitted bool

	submit *debounce.Call[PollDraft, SubmitReport]
}

type PollWizardOption func(*PollWizard)

func WithDraft(d PollDraft) PollWizardOption {
	return func(w *PollWizard) { w.draft = d.clone() }
}

func WithWizardSubmitDelay(d time.Duration) PollWizardOption {
	return func(w *PollWizard) { w.delay = d }
}

func WithWizardLogger(log zerolog.Logger) PollWizardOption {
	return func(w *PollWizard) { w.log = log }
}

func NewPollWizard(polls ports.PollAPI, now time.Time, opts ...PollWizardOption) *PollWizard {
	w := &PollWizard{
		polls:    polls,
		validate: newDraftValidator(),
		log:      zerolog.Nop(),
		delay:    DefaultSubmitDelay,
		step:     StepDetails,
		draft:    DefaultDraft(now),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.submit = debounce.NewCall(w.delay, w.publish)
	return w
}

func (w *PollWizard) Step() WizardStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *PollWizard) Draft() PollDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.clone()
}

func (w *PollWizard) Submitted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitted
}

// Next validates only the current step and moves forward when it passes.
func (w *PollWizard) Next(now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	switch w.step {
	case StepDetails:
		err = w.checkDetails(now)
	case StepVoterRanges:
		// Public polls only see an explanation on this step.
		if w.draft.IsPrivate {
			err = w.checkRanges()
		}
	case StepOptions:
		err = w.checkOptions()
	default:
		return ErrWizardComplete
	}
	if err != nil {
		return err
	}

	w.step++
	return nil
}

// Advance calls Next until the review step or the first failing step.
func (w *PollWizard) Advance(now time.Time) error {
	for w.Step() != StepReview {
		if err := w.Next(now); err != nil {
			return err
		}
	}
	return nil
}

func (w *PollWizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step > StepDetails {
		w.step--
	}
}

func (w *PollWizard) edit(fn func(d *PollDraft) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := fn(&w.draft); err != nil {
		return err
	}
	w.submitted = false
	return nil
}

func (w *PollWizard) SetTitle(title string) {
	_ = w.edit(func(d *PollDraft) error { d.Title = title; return nil })
}

func (w *PollWizard) SetDescription(description string) {
	_ = w.edit(func(d *PollDraft) error { d.Description = description; return nil })
}

func (w *PollWizard) SetWindow(start, end time.Time) {
	_ = w.edit(func(d *PollDraft) error {
		d.StartTime, d.EndTime = start, end
		return nil
	})
}

func (w *PollWizard) SetPrivate(private bool) {
	_ = w.edit(func(d *PollDraft) error { d.IsPrivate = private; return nil })
}

func (w *PollWizard) AddOption(text string) {
	_ = w.edit(func(d *PollDraft) error {
		d.Options = append(d.Options, text)
		return nil
	})
}

func (w *PollWizard) SetOption(i int, text string) error {
	return w.edit(func(d *PollDraft) error {
		if i < 0 || i >= len(d.Options) {
			return ErrIndexOutOfRange
		}
		d.Options[i] = text
		return nil
	})
}

// RemoveOption refuses to go below two options.
func (w *PollWizard) RemoveOption(i int) error {
	return w.edit(func(d *PollDraft) error {
		if i < 0 || i >= len(d.Options) {
			return ErrIndexOutOfRange
		}
		if len(d.Options) <= 2 {
			return ErrOptionFloor
		}
		d.Options = append(d.Options[:i:i], d.Options[i+1:]...)
		return nil
	})
}

func (w *PollWizard) AddRange(start, end int) {
	_ = w.edit(func(d *PollDraft) error {
		d.Ranges = append(d.Ranges, RangeDraft{Start: start, End: end})
		return nil
	})
}

func (w *PollWizard) SetRange(i, start, end int) error {
	return w.edit(func(d *PollDraft) error {
		if i < 0 || i >= len(d.Ranges) {
			return ErrIndexOutOfRange
		}
		d.Ranges[i] = RangeDraft{Start: start, End: end}
		return nil
	})
}

func (w *PollWizard) RemoveRange(i int) error {
	return w.edit(func(d *PollDraft) error {
		if i < 0 || i >= len(d.Ranges) {
			return ErrIndexOutOfRange
		}
		d.Ranges = append(d.Ranges[:i:i], d.Ranges[i+1:]...)
		return nil
	})
}

// Submit publishes the draft from the review step. Every step is checked
// again first. Publishing is not rolled back when a later call fails.
func (w *PollWizard) Submit(ctx context.Context, now time.Time) (SubmitReport, error) {
	w.mu.Lock()
	if w.step != StepReview {
		w.mu.Unlock()
		return SubmitReport{}, ErrWizardIncomplete
	}
	if err := w.checkAll(now); err != nil {
		w.mu.Unlock()
		return SubmitReport{}, err
	}
	draft := w.draft.clone()
	w.mu.Unlock()

	return w.submit.Do(ctx, draft)
}

func (w *PollWizard) publish(ctx context.Context, d PollDraft) (SubmitReport, error) {
	var report SubmitReport

	created := w.polls.CreatePoll(ctx, domain.CreatePollInput{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		IsPrivate:   d.IsPrivate,
	})
	if !created.Success {
		w.log.Warn().Int("status", created.Status).Str("message", created.Message).Msg("Failed to create poll.")
		return report, fmt.Errorf("failed to create poll: %w", created.Err())
	}
	report.PollID = created.Data.PollID
	report.Created = true

	options := w.polls.AddOptions(ctx, report.PollID, d.trimmedOptions())
	if !options.Success {
		w.log.Warn().Str("poll_id", report.PollID.String()).Str("message", options.Message).Msg("Poll created but options were rejected.")
		return report, fmt.Errorf("failed to add options: %w", options.Err())
	}
	report.OptionsAdded = true

	if d.IsPrivate {
		ranges := w.polls.AddRollRanges(ctx, report.PollID, d.rollRanges())
		if !ranges.Success {
			w.log.Warn().Str("poll_id", report.PollID.String()).Str("message", ranges.Message).Msg("Poll created but voter ranges were rejected.")
			return report, fmt.Errorf("failed to add voter ranges: %w", ranges.Err())
		}
		report.RangesAdded = true
	}

	report.Redirect = PollsHomePath
	report.RedirectAfter = WizardRedirectAfter

	w.mu.Lock()
	w.submitted = true
	w.mu.Unlock()

	w.log.Info().Str("poll_id", report.PollID.String()).Msg("Poll published.")
	return report, nil
}

// Close releases a caller still waiting on a debounced submit.
func (w *PollWizard) Close() {
	w.submit.Stop()
}

func (w *PollWizard) checkDetails(now time.Time) error {
	return w.check(detailsStep{
		Title:       strings.TrimSpace(w.draft.Title),
		Description: strings.TrimSpace(w.draft.Description),
		StartTime:   w.draft.StartTime,
		EndTime:     w.draft.EndTime,
		Now:         now,
	})
}

func (w *PollWizard) checkRanges() error {
	return w.check(rangesStep{Ranges: w.draft.Ranges})
}

func (w *PollWizard) checkOptions() error {
	return w.check(optionsStep{Options: w.draft.trimmedOptions()})
}

func (w *PollWizard) checkAll(now time.Time) error {
	fields := map[string]string{}

	checks := []func() error{
		func() error { return w.checkDetails(now) },
		w.checkOptions,
	}
	if w.draft.IsPrivate {
		checks = append(checks, w.checkRanges)
	}

	for _, check := range checks {
		err := check()
		if err == nil {
			continue
		}
		verr, ok := err.(*ValidationError)
		if !ok {
			return err
		}
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (w *PollWizard) check(step any) error {
	err := w.validate.Struct(step)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate draft: %w", err)
	}
	return newValidationError(verrs)
}
