package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

// watcher owns the poll being followed. The cron jobs run on their own
// goroutines, so every access goes through mu.
type watcher struct {
	app *App
	id  string

	mu       sync.Mutex
	vote     *services.PollVote
	label    string
	finished chan struct{}
	once     sync.Once
}

func (w *watcher) finish() {
	w.once.Do(func() { close(w.finished) })
}

// settled reports whether nothing can change any more: the poll ended and
// its result is in.
func settled(vote *services.PollVote, now time.Time) bool {
	poll := vote.Poll()
	return poll != nil && poll.HasEnded(now) && vote.Result() != nil
}

func (w *watcher) tick() {
	w.mu.Lock()
	poll := w.vote.Poll()
	now := w.app.clock()
	label, _ := domain.Countdown(now, poll.StartTime.Time(), poll.EndTime.Time())
	crossed := label != w.label
	w.label = label
	fmt.Fprintf(w.app.out, "\r%-40s", countdownLine(poll, now))
	w.mu.Unlock()

	// The poll just opened or closed, fetch the new state right away.
	if crossed {
		w.reload()
	}
}

func (w *watcher) reload() {
	vote, err := w.app.openPoll(context.Background(), w.id)
	if err != nil {
		w.app.log.Warn().Err(err).Str("poll_id", w.id).Msg("Failed to refresh poll.")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.vote.Close()
	w.vote = vote

	now := w.app.clock()
	fmt.Fprint(w.app.out, "\n\n")
	renderPoll(w.app.out, vote, now)
	if settled(vote, now) {
		w.finish()
	}
}

func (a *App) watch(ctx context.Context, args []string) error {
	fs := a.flagSet("watch")
	refresh := fs.Duration("refresh", 30*time.Second, "how often to reload the poll")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 || *refresh < time.Second {
		fmt.Fprintln(a.err, "usage: campuspoll watch <poll-id> [-refresh 30s], refresh of at least 1s")
		return ErrUsage
	}

	vote, err := a.openPoll(ctx, rest[0])
	if err != nil {
		return err
	}

	now := a.clock()
	renderPoll(a.out, vote, now)
	if settled(vote, now) {
		vote.Close()
		return nil
	}

	poll := vote.Poll()
	label, _ := domain.Countdown(now, poll.StartTime.Time(), poll.EndTime.Time())
	w := &watcher{app: a, id: rest[0], vote: vote, label: label, finished: make(chan struct{})}
	defer func() {
		w.mu.Lock()
		w.vote.Close()
		w.mu.Unlock()
	}()

	scheduler := cron.New(cron.WithLogger(cron.PrintfLogger(&a.log)))
	if _, err := scheduler.AddFunc("@every 1s", w.tick); err != nil {
		return fmt.Errorf("failed to schedule countdown: %w", err)
	}
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", *refresh), w.reload); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	scheduler.Start()

	select {
	case <-ctx.Done():
	case <-w.finished:
	}
	<-scheduler.Stop().Done()

	fmt.Fprintln(a.out)
	return nil
}
