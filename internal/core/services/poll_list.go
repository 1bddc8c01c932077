package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
	"github.com/vncsmyrnk/campuspoll/internal/debounce"
)

const (
	DefaultPageLimit   = 20
	DefaultSearchDelay = 300 * time.Millisecond
	NoPollsFound       = "No Polls Found"
)

// ListView is a point-in-time copy of the list state, safe to render.
type ListView struct {
	Category    domain.Category `json:"category"`
	Polls       []domain.Poll   `json:"polls"`
	Total       int             `json:"total"`
	Skip        int             `json:"skip"`
	Limit       int             `json:"limit"`
	Search      string          `json:"search"`
	Loading     bool            `json:"loading"`
	LoadingMore bool            `json:"loading_more"`
}

func (v ListView) Empty() bool {
	return !v.Loading && len(v.Polls) == 0
}

func (v ListView) CanLoadMore() bool {
	return len(v.Polls) < v.Total
}

// PollList pages through one poll category with a debounced search.
type PollList struct {
	polls    ports.PollAPI
	category domain.Category
	limit    int
	delay    time.Duration
	log      zerolog.Logger

	mu          sync.Mutex
	items       []domain.Poll
	total       int
	skip        int
	search      string
	loading     bool
	loadingMore bool

	searchCall *debounce.Call[string, struct{}]
}

type PollListOption func(*PollList)

func WithLimit(n int) PollListOption {
	return func(l *PollList) {
		if n > 0 {
			l.limit = n
		}
	}
}

func WithSearchDelay(d time.Duration) PollListOption {
	return func(l *PollList) { l.delay = d }
}

func WithListLogger(log zerolog.Logger) PollListOption {
	return func(l *PollList) { l.log = log }
}

func NewPollList(polls ports.PollAPI, category string, opts ...PollListOption) (*PollList, error) {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	l := &PollList{
		polls:    polls,
		category: c,
		limit:    DefaultPageLimit,
		delay:    DefaultSearchDelay,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.searchCall = debounce.NewCall(l.delay, l.runSearch)
	return l, nil
}

// Load fetches the first page for the current search and replaces the list.
func (l *PollList) Load(ctx context.Context) error {
	l.mu.Lock()
	l.skip = 0
	l.loading = true
	search := l.search
	l.mu.Unlock()

	return l.fetch(ctx, 0, search, true)
}

// Search records the input right away and fetches once typing settles.
// Leading whitespace is dropped.
func (l *PollList) Search(ctx context.Context, text string) error {
	text = strings.TrimLeft(text, " \t\r\n")

	l.mu.Lock()
	l.search = text
	l.mu.Unlock()

	_, err := l.searchCall.Do(ctx, text)
	return err
}

func (l *PollList) runSearch(ctx context.Context, text string) (struct{}, error) {
	l.mu.Lock()
	l.skip = 0
	l.loading = true
	l.mu.Unlock()

	return struct{}{}, l.fetch(ctx, 0, text, true)
}

// LoadMore appends the next page. The offset advances before the request is
// sent.
func (l *PollList) LoadMore(ctx context.Context) error {
	l.mu.Lock()
	if l.loading || l.loadingMore {
		l.mu.Unlock()
		return ErrLoadInProgress
	}
	if len(l.items) >= l.total {
		l.mu.Unlock()
		return ErrNoMorePolls
	}
	l.skip += l.limit
	l.loadingMore = true
	skip, search := l.skip, l.search
	l.mu.Unlock()

	return l.fetch(ctx, skip, search, false)
}

func (l *PollList) fetch(ctx context.Context, skip int, search string, replace bool) error {
	env := l.polls.ListPolls(ctx, domain.ListPollsInput{
		Category: l.category,
		Search:   search,
		Limit:    l.limit,
		Skip:     skip,
	})

	l.mu.Lock()
	defer l.mu.Unlock()

	if replace {
		l.loading = false
	} else {
		l.loadingMore = false
	}

	if !env.Success {
		l.log.Warn().Str("category", string(l.category)).Int("status", env.Status).Str("message", env.Message).Msg("Failed to fetch polls.")
		return fmt.Errorf("failed to fetch polls: %w", env.Err())
	}

	combined := env.Data.Data
	if !replace {
		combined = append(append([]domain.Poll{}, l.items...), env.Data.Data...)
	}
	l.items = lo.UniqBy(combined, func(p domain.Poll) uuid.UUID { return p.ID })
	l.total = env.Data.Count

	l.log.Debug().Str("category", string(l.category)).Int("skip", skip).Int("received", len(env.Data.Data)).Int("total", l.total).Msg("Polls fetched.")
	return nil
}

// Remove drops a poll locally without refetching and reports whether it was
// present.
func (l *PollList) Remove(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := lo.Reject(l.items, func(p domain.Poll, _ int) bool { return p.ID == id })
	if len(kept) == len(l.items) {
		return false
	}
	l.items = kept
	if l.total > 0 {
		l.total--
	}
	return true
}

// Delete removes the poll on the backend and then from the list.
func (l *PollList) Delete(ctx context.Context, id uuid.UUID) error {
	env := l.polls.DeletePoll(ctx, id)
	if !env.Success {
		return fmt.Errorf("failed to delete poll: %w", env.Err())
	}
	l.Remove(id)
	return nil
}

func (l *PollList) View() ListView {
	l.mu.Lock()
	defer l.mu.Unlock()

	return ListView{
		Category:    l.category,
		Polls:       append([]domain.Poll{}, l.items...),
		Total:       l.total,
		Skip:        l.skip,
		Limit:       l.limit,
		Search:      l.search,
		Loading:     l.loading,
		LoadingMore: l.loadingMore,
	}
}

func (l *PollList) Category() domain.Category {
	return l.category
}

// Close releases any caller still waiting on a debounced search.
func (l *PollList) Close() {
	l.searchCall.Stop()
}
