package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

func (a *App) polls(ctx context.Context, args []string) error {
	fs := a.flagSet("polls")
	category := fs.String("category", "all", "all, public, mine, ongoing, upcoming, ended or popular")
	search := fs.String("search", "", "filter by title")
	limit := fs.Int("limit", services.DefaultPageLimit, "polls per page")
	pages := fs.Int("pages", 1, "pages to load")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		*category = rest[0]
	}

	list, err := services.NewPollList(a.backend, *category,
		services.WithLimit(*limit),
		services.WithSearchDelay(0),
		services.WithListLogger(a.log),
	)
	if err != nil {
		return err
	}
	defer list.Close()

	if *search != "" {
		err = list.Search(ctx, *search)
	} else {
		err = list.Load(ctx)
	}
	if err != nil {
		return err
	}

	for page := 1; page < *pages && list.View().CanLoadMore(); page++ {
		if err := list.LoadMore(ctx); err != nil {
			return err
		}
	}

	renderList(a.out, list.View(), a.clock())
	return nil
}

// openPoll builds a vote controller for id and loads it.
func (a *App) openPoll(ctx context.Context, id string) (*services.PollVote, error) {
	vote, err := services.NewPollVote(a.backend, a.backend, id,
		services.WithSubmitDelay(a.submitDelay),
		services.WithVoteLogger(a.log),
	)
	if err != nil {
		return nil, err
	}
	if err := vote.Load(ctx, a.clock()); err != nil {
		vote.Close()
		return nil, err
	}
	return vote, nil
}

func (a *App) show(ctx context.Context, args []string) error {
	fs := a.flagSet("show")
	share := fs.Bool("share", false, "print the share link")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		fmt.Fprintln(a.err, "usage: campuspoll show <poll-id> [-share]")
		return ErrUsage
	}

	vote, err := a.openPoll(ctx, rest[0])
	if err != nil {
		return err
	}
	defer vote.Close()

	now := a.clock()
	renderPoll(a.out, vote, now)
	if session, err := a.sessions.Resolve(ctx, a.tokens); err == nil && session.Authenticated() {
		renderEligibility(a.out, vote.Poll(), session.User, now)
	}
	if *share {
		fmt.Fprintf(a.out, "\n%s\n", vote.ShareURL(a.frontendURL))
	}
	return nil
}

func (a *App) vote(ctx context.Context, args []string) error {
	fs := a.flagSet("vote")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 2 {
		fmt.Fprintln(a.err, "usage: campuspoll vote <poll-id> <option-number> [-yes]")
		return ErrUsage
	}
	position, err := strconv.Atoi(rest[1])
	if err != nil {
		return fmt.Errorf("option number %q: %w", rest[1], ErrUsage)
	}

	vote, err := a.openPoll(ctx, rest[0])
	if err != nil {
		return err
	}
	defer vote.Close()

	if err := vote.SelectIndex(position, a.clock()); err != nil {
		return err
	}
	if err := vote.RequestConfirm(); err != nil {
		return err
	}

	poll := vote.Poll()
	choice := poll.Options[position-1].Text
	if !*yes {
		ok, err := a.confirm(fmt.Sprintf("Vote for %q on %q?", choice, poll.Title))
		if err != nil {
			return err
		}
		if !ok {
			vote.Dismiss()
			fmt.Fprintln(a.out, "Vote cancelled.")
			return nil
		}
	}

	outcome, err := vote.Confirm(ctx)
	if err != nil {
		return err
	}
	green.Fprintln(a.out, outcome.Message)
	return nil
}

func (a *App) deletePoll(ctx context.Context, args []string) error {
	fs := a.flagSet("delete")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		fmt.Fprintln(a.err, "usage: campuspoll delete <poll-id> [-yes]")
		return ErrUsage
	}

	session, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	vote, err := a.openPoll(ctx, rest[0])
	if err != nil {
		return err
	}
	defer vote.Close()

	if !*yes {
		ok, err := a.confirm(fmt.Sprintf("Delete %q?", vote.Poll().Title))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Nothing deleted.")
			return nil
		}
	}

	outcome, err := vote.Delete(ctx, session.User)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, outcome.Message)
	return nil
}
