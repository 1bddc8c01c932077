package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

var (
	bold    = color.New(color.Bold)
	faint   = color.New(color.Faint)
	green   = color.New(color.FgGreen, color.Bold)
	red     = color.New(color.FgRed)
	yellow  = color.New(color.FgYellow)
	cyan    = color.New(color.FgCyan)
	phaseOf = map[domain.PollPhase]*color.Color{
		domain.PhaseUpcoming: yellow,
		domain.PhaseOngoing:  green,
		domain.PhaseEnded:    red,
	}
)

// formatRemaining prints a duration as "1d 2h 3m 4s", dropping leading zero
// units.
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Round(time.Second)

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if days > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if days > 0 || hours > 0 || minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))
	return strings.Join(parts, " ")
}

func countdownLine(poll *domain.Poll, now time.Time) string {
	label, remaining := domain.Countdown(now, poll.StartTime.Time(), poll.EndTime.Time())
	if remaining == 0 {
		return label
	}
	return label + " " + formatRemaining(remaining)
}

func phaseTag(poll *domain.Poll, now time.Time) string {
	phase := poll.Phase(now)
	return phaseOf[phase].Sprintf("[%s]", phase)
}

func renderList(w io.Writer, view services.ListView, now time.Time) {
	if view.Empty() {
		faint.Fprintln(w, services.NoPollsFound)
		return
	}

	for _, poll := range view.Polls {
		visibility := "public"
		if poll.IsPrivate {
			visibility = "private"
		}
		fmt.Fprintf(w, "%s %s\n", phaseTag(&poll, now), bold.Sprint(poll.Title))
		fmt.Fprintf(w, "    %s  %s  by %s  %s\n",
			faint.Sprint(poll.ID), visibility, poll.CreatorHandle(), countdownLine(&poll, now))
	}
	fmt.Fprintf(w, "\nshowing %d of %d\n", len(view.Polls), view.Total)
}

func renderPoll(w io.Writer, vote *services.PollVote, now time.Time) {
	poll := vote.Poll()
	if poll == nil {
		return
	}

	fmt.Fprintf(w, "%s %s\n", phaseTag(poll, now), bold.Sprint(poll.Title))
	if poll.Description != "" {
		fmt.Fprintln(w, poll.Description)
	}
	fmt.Fprintf(w, "by %s  %s\n", poll.CreatorHandle(), countdownLine(poll, now))
	if poll.IsPrivate && len(poll.RollRanges) > 0 {
		ranges := make([]string, 0, len(poll.RollRanges))
		for _, r := range poll.RollRanges {
			ranges = append(ranges, fmt.Sprintf("%d-%d", r.Start, r.End))
		}
		fmt.Fprintf(w, "voters: %s\n", strings.Join(ranges, ", "))
	}
	fmt.Fprintln(w)

	if result := vote.Result(); result != nil {
		renderResult(w, result)
		return
	}

	selected, hasSelection := vote.Selected()
	for i, opt := range poll.Options {
		marker := " "
		if hasSelection && opt.ID == selected {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %d. %s\n", marker, i+1, opt.Text)
	}
	if poll.HasVoted() {
		cyan.Fprintln(w, "\nYou already voted on this poll.")
	}
}

func renderResult(w io.Writer, result *domain.PollResult) {
	for _, opt := range result.Options {
		line := fmt.Sprintf("%6.2f%%  %-30s %d votes", opt.Percentage, opt.Text, opt.Votes)
		if opt.Highlighted() {
			green.Fprintln(w, line+"  winner")
			continue
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%d votes in total\n", result.TotalVotes)

	if winners := result.Winners(); len(winners) > 1 && winners[0].Highlighted() {
		texts := lo.Map(winners, func(o domain.OptionResult, _ int) string { return o.Text })
		yellow.Fprintf(w, "tie between %s\n", strings.Join(texts, ", "))
	}
}

// renderEligibility tells a signed in student whether their roll number is
// among the voters of a private poll that still takes votes.
func renderEligibility(w io.Writer, poll *domain.Poll, user *domain.User, now time.Time) {
	if poll == nil || user == nil || user.Roll == 0 {
		return
	}
	if !poll.IsPrivate || poll.HasVoted() || poll.HasEnded(now) {
		return
	}
	if poll.AllowsRoll(user.Roll) {
		cyan.Fprintf(w, "\nRoll %d may vote on this poll.\n", user.Roll)
		return
	}
	red.Fprintf(w, "\nRoll %d is not among the voters of this poll.\n", user.Roll)
}

func renderDraft(w io.Writer, draft services.PollDraft) {
	fmt.Fprintf(w, "Title:       %s\n", draft.Title)
	fmt.Fprintf(w, "Description: %s\n", draft.Description)
	fmt.Fprintf(w, "Starts:      %s\n", draft.StartTime.Format(time.DateTime))
	fmt.Fprintf(w, "Ends:        %s\n", draft.EndTime.Format(time.DateTime))
	if draft.IsPrivate {
		ranges := make([]string, 0, len(draft.Ranges))
		for _, r := range draft.Ranges {
			ranges = append(ranges, fmt.Sprintf("%d-%d", r.Start, r.End))
		}
		fmt.Fprintf(w, "Voters:      %s\n", strings.Join(ranges, ", "))
	} else {
		fmt.Fprintln(w, "Voters:      everyone")
	}
	for i, opt := range draft.Options {
		fmt.Fprintf(w, "  %d. %s\n", i+1, opt)
	}
}

func renderValidation(w io.Writer, verr *services.ValidationError) {
	for _, key := range verr.Keys() {
		red.Fprintf(w, "  %s: %s\n", key, verr.Fields[key])
	}
}
