// Package cli is the terminal front end: it parses sub-commands and drives
// the poll controllers against the backend.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

var ErrUsage = errors.New("usage")

// Backend is everything the commands need from the poll API.
type Backend interface {
	ports.PollAPI
	ports.VoteAPI
	ports.UserAPI
}

type App struct {
	backend     Backend
	sessions    *services.SessionService
	tokens      ports.TokenStore
	provider    ports.AuthProvider
	frontendURL string

	in    *bufio.Reader
	out   io.Writer
	err   io.Writer
	clock func() time.Time
	log   zerolog.Logger

	submitDelay time.Duration
	loginAddr   string
}

type Option func(*App)

func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.out = out
		a.err = errOut
	}
}

func WithClock(clock func() time.Time) Option {
	return func(a *App) { a.clock = clock }
}

func WithLogger(log zerolog.Logger) Option {
	return func(a *App) { a.log = log }
}

func WithProvider(provider ports.AuthProvider) Option {
	return func(a *App) { a.provider = provider }
}

// WithSubmitDelay sets the debounce in front of vote and create submits.
// One-shot commands default to none.
func WithSubmitDelay(d time.Duration) Option {
	return func(a *App) { a.submitDelay = d }
}

// WithLoginAddr sets the loopback address the login command listens on.
func WithLoginAddr(addr string) Option {
	return func(a *App) { a.loginAddr = addr }
}

func New(backend Backend, sessions *services.SessionService, tokens ports.TokenStore, frontendURL string, opts ...Option) *App {
	a := &App{
		backend:     backend,
		sessions:    sessions,
		tokens:      tokens,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		in:          bufio.NewReader(strings.NewReader("")),
		out:         io.Discard,
		err:         io.Discard,
		clock:       time.Now,
		log:         zerolog.Nop(),
		loginAddr:   "127.0.0.1:0",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string) error
}

func (a *App) commands() []command {
	return []command{
		{"login", "sign in through the browser", a.login},
		{"logout", "sign out and forget the stored tokens", a.logout},
		{"whoami", "show the signed in user", a.whoami},
		{"polls", "list polls of a category", a.polls},
		{"show", "show a poll and its results", a.show},
		{"vote", "vote for an option of a poll", a.vote},
		{"create", "create a poll", a.create},
		{"delete", "delete a poll you created", a.deletePoll},
		{"watch", "follow a poll's countdown and results", a.watch},
	}
}

// Run executes one sub-command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}

	for _, c := range a.commands() {
		if c.name == args[0] {
			return c.run(ctx, args[1:])
		}
	}

	fmt.Fprintf(a.err, "unknown command %q\n", args[0])
	a.usage()
	return ErrUsage
}

func (a *App) usage() {
	fmt.Fprintln(a.err, "usage: campuspoll <command> [flags]")
	fmt.Fprintln(a.err)
	for _, c := range a.commands() {
		fmt.Fprintf(a.err, "  %-8s %s\n", c.name, c.summary)
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.err)
	return fs
}

// parse accepts flags before and after positional arguments.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUsage, err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func (a *App) prompt(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(a.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(a.out, "%s: ", label)
	}

	line, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return current, nil
	}
	return line, nil
}

func (a *App) confirm(question string) (bool, error) {
	answer, err := a.prompt(question+" [y/N]", "")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
