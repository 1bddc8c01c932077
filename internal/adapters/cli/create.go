package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// parseWhen reads "+2h" relative to now, RFC 3339 or a local
// "2006-01-02 15:04[:05]".
func parseWhen(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if rel, ok := strings.CutPrefix(value, "+"); ok {
		d, err := time.ParseDuration(rel)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid duration %q", value)
		}
		return now.Add(d), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.DateTime, "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use +2h, RFC 3339 or YYYY-MM-DD HH:MM", value)
}

// parseRange reads "2104001-2104132".
func parseRange(value string) (services.RangeDraft, error) {
	startText, endText, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok {
		return services.RangeDraft{}, fmt.Errorf("invalid range %q, use start-end", value)
	}
	start, err := strconv.Atoi(strings.TrimSpace(startText))
	if err != nil {
		return services.RangeDraft{}, fmt.Errorf("invalid range start %q", startText)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endText))
	if err != nil {
		return services.RangeDraft{}, fmt.Errorf("invalid range end %q", endText)
	}
	return services.RangeDraft{Start: start, End: end}, nil
}

func parseRanges(value string) ([]services.RangeDraft, error) {
	var ranges []services.RangeDraft
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := parseRange(part)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func formatRanges(ranges []services.RangeDraft) string {
	return strings.Join(lo.Map(ranges, func(r services.RangeDraft, _ int) string {
		return fmt.Sprintf("%d-%d", r.Start, r.End)
	}), ", ")
}

func replaceRanges(wizard *services.PollWizard, ranges []services.RangeDraft) {
	for range wizard.Draft().Ranges {
		_ = wizard.RemoveRange(0)
	}
	for _, r := range ranges {
		wizard.AddRange(r.Start, r.End)
	}
}

func (a *App) create(ctx context.Context, args []string) error {
	fs := a.flagSet("create")
	title := fs.String("title", "", "poll title")
	description := fs.String("description", "", "poll description")
	start := fs.String("start", "", "start time (+2h, RFC 3339 or YYYY-MM-DD HH:MM)")
	end := fs.String("end", "", "end time (+2h, RFC 3339 or YYYY-MM-DD HH:MM)")
	public := fs.Bool("public", false, "let everyone vote")
	var options, ranges stringList
	fs.Var(&options, "option", "option text, repeat for each option")
	fs.Var(&ranges, "range", "voter roll range start-end, repeat for each range")
	if _, err := parse(fs, args); err != nil {
		return err
	}

	now := a.clock()
	wizardOpts := []services.PollWizardOption{
		services.WithWizardSubmitDelay(a.submitDelay),
		services.WithWizardLogger(a.log),
	}

	scripted := false
	fs.Visit(func(*flag.Flag) { scripted = true })
	if scripted {
		draft, err := draftFromFlags(now, *title, *description, *start, *end, *public, options, ranges)
		if err != nil {
			return err
		}
		wizardOpts = append(wizardOpts, services.WithDraft(draft))
	}

	wizard := services.NewPollWizard(a.backend, now, wizardOpts...)
	defer wizard.Close()

	if scripted {
		if err := wizard.Advance(now); err != nil {
			return a.reportInvalid(err)
		}
	} else {
		ok, err := a.runWizard(wizard)
		if err != nil || !ok {
			return err
		}
	}

	report, err := wizard.Submit(ctx, a.clock())
	if err != nil {
		if report.Created {
			yellow.Fprintf(a.err, "Poll %s was created but publishing did not finish.\n", report.PollID)
		}
		return a.reportInvalid(err)
	}

	green.Fprintf(a.out, "Poll published: %s\n", report.PollID)
	fmt.Fprintln(a.out, a.shareURL(report.PollID))
	return nil
}

func (a *App) shareURL(id uuid.UUID) string {
	return a.frontendURL + "/polls/vote/" + id.String()
}

// draftFromFlags starts from the default draft and overrides whatever the
// flags set.
func draftFromFlags(now time.Time, title, description, start, end string, public bool, options, ranges []string) (services.PollDraft, error) {
	draft := services.DefaultDraft(now)
	if title != "" {
		draft.Title = title
	}
	if description != "" {
		draft.Description = description
	}

	var err error
	if start != "" {
		if draft.StartTime, err = parseWhen(start, now); err != nil {
			return draft, err
		}
	}
	if end != "" {
		if draft.EndTime, err = parseWhen(end, now); err != nil {
			return draft, err
		}
	}
	draft.IsPrivate = !public

	if len(ranges) > 0 {
		draft.Ranges = nil
		for _, value := range ranges {
			r, err := parseRange(value)
			if err != nil {
				return draft, err
			}
			draft.Ranges = append(draft.Ranges, r)
		}
	}
	if len(options) > 0 {
		draft.Options = options
	}
	return draft, nil
}

func (a *App) reportInvalid(err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		red.Fprintln(a.err, "The poll is not valid:")
		renderValidation(a.err, verr)
	}
	return err
}

// runWizard prompts for every step and repeats a step until it passes. It
// reports false when the user declines to publish.
func (a *App) runWizard(wizard *services.PollWizard) (bool, error) {
	for wizard.Step() != services.StepReview {
		bold.Fprintf(a.out, "\nStep %d of 4: %s\n", int(wizard.Step()), wizard.Step())

		var err error
		switch wizard.Step() {
		case services.StepDetails:
			err = a.promptDetails(wizard)
		case services.StepVoterRanges:
			err = a.promptRanges(wizard)
		case services.StepOptions:
			err = a.promptOptions(wizard)
		}
		if err == nil {
			err = wizard.Next(a.clock())
		}

		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			renderValidation(a.out, verr)
		case err != nil && isInputError(err):
			red.Fprintf(a.out, "  %s\n", err)
		case err != nil:
			return false, err
		}
	}

	bold.Fprintln(a.out, "\nStep 4 of 4: review")
	renderDraft(a.out, wizard.Draft())
	fmt.Fprintln(a.out)

	ok, err := a.confirm("Publish this poll?")
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(a.out, "Nothing published.")
	}
	return ok, nil
}

// inputError marks text the user typed that could not be parsed at all.
type inputError struct{ err error }

func (e inputError) Error() string { return e.err.Error() }
func (e inputError) Unwrap() error { return e.err }

func isInputError(err error) bool {
	var ie inputError
	return errors.As(err, &ie)
}

func (a *App) promptDetails(wizard *services.PollWizard) error {
	draft := wizard.Draft()

	title, err := a.prompt("Title", draft.Title)
	if err != nil {
		return err
	}
	description, err := a.prompt("Description", draft.Description)
	if err != nil {
		return err
	}
	startText, err := a.prompt("Starts", draft.StartTime.Format("2006-01-02 15:04"))
	if err != nil {
		return err
	}
	endText, err := a.prompt("Ends", draft.EndTime.Format("2006-01-02 15:04"))
	if err != nil {
		return err
	}

	wizard.SetTitle(title)
	wizard.SetDescription(description)

	now := a.clock()
	start, err := parseWhen(startText, now)
	if err != nil {
		return inputError{err}
	}
	end, err := parseWhen(endText, now)
	if err != nil {
		return inputError{err}
	}
	wizard.SetWindow(start, end)
	return nil
}

func (a *App) promptRanges(wizard *services.PollWizard) error {
	draft := wizard.Draft()

	current := "yes"
	if !draft.IsPrivate {
		current = "no"
	}
	answer, err := a.prompt("Private poll (yes/no)", current)
	if err != nil {
		return err
	}
	private := strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
	wizard.SetPrivate(private)

	if !private {
		fmt.Fprintln(a.out, "Everyone can vote on a public poll.")
		return nil
	}

	text, err := a.prompt("Voter rolls (start-end, comma separated)", formatRanges(draft.Ranges))
	if err != nil {
		return err
	}
	ranges, err := parseRanges(text)
	if err != nil {
		return inputError{err}
	}
	replaceRanges(wizard, ranges)
	return nil
}

func (a *App) promptOptions(wizard *services.PollWizard) error {
	for i, current := range wizard.Draft().Options {
		text, err := a.prompt(fmt.Sprintf("Option %d", i+1), current)
		if err != nil {
			return err
		}
		if err := wizard.SetOption(i, text); err != nil {
			return err
		}
	}

	for {
		text, err := a.prompt("Another option (blank to finish)", "")
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return nil
		}
		wizard.AddOption(text)
	}
}
