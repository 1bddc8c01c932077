package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
)

// fakeAPI stands in for the backend. Unset hooks answer 404.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	listPolls     func(domain.ListPollsInput) domain.Envelope[domain.PollsPage]
	getPoll       func(uuid.UUID) domain.Envelope[domain.Poll]
	getPollResult func(uuid.UUID) domain.Envelope[domain.RawPollResult]
	createPoll    func(domain.CreatePollInput) domain.Envelope[domain.CreatedPoll]
	addOptions    func(uuid.UUID, []string) domain.Envelope[domain.Message]
	addRollRanges func(uuid.UUID, [][2]int) domain.Envelope[domain.Message]
	listOptions   func(uuid.UUID) domain.Envelope[[]domain.Option]
	listRanges    func(uuid.UUID) domain.Envelope[[]domain.RollRange]
	deletePoll    func(uuid.UUID) domain.Envelope[domain.Message]
	vote          func(uuid.UUID) domain.Envelope[domain.Message]
	currentUser   func(string) domain.Envelope[domain.User]
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeAPI) count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func notFound[T any]() domain.Envelope[T] {
	return domain.Fail[T](404, "Not Found", nil)
}

func (f *fakeAPI) ListPolls(_ context.Context, input domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
	f.record("ListPolls")
	if f.listPolls == nil {
		return notFound[domain.PollsPage]()
	}
	return f.listPolls(input)
}

func (f *fakeAPI) GetPoll(_ context.Context, id uuid.UUID) domain.Envelope[domain.Poll] {
	f.record("GetPoll")
	if f.getPoll == nil {
		return notFound[domain.Poll]()
	}
	return f.getPoll(id)
}

func (f *fakeAPI) GetPollResult(_ context.Context, id uuid.UUID) domain.Envelope[domain.RawPollResult] {
	f.record("GetPollResult")
	if f.getPollResult == nil {
		return domain.Fail[domain.RawPollResult](400, "Poll has not ended yet", nil)
	}
	return f.getPollResult(id)
}

func (f *fakeAPI) CreatePoll(_ context.Context, input domain.CreatePollInput) domain.Envelope[domain.CreatedPoll] {
	f.record("CreatePoll")
	if f.createPoll == nil {
		return notFound[domain.CreatedPoll]()
	}
	return f.createPoll(input)
}

func (f *fakeAPI) AddOptions(_ context.Context, pollID uuid.UUID, texts []string) domain.Envelope[domain.Message] {
	f.record("AddOptions")
	if f.addOptions == nil {
		return notFound[domain.Message]()
	}
	return f.addOptions(pollID, texts)
}

func (f *fakeAPI) AddRollRanges(_ context.Context, pollID uuid.UUID, ranges [][2]int) domain.Envelope[domain.Message] {
	f.record("AddRollRanges")
	if f.addRollRanges == nil {
		return notFound[domain.Message]()
	}
	return f.addRollRanges(pollID, ranges)
}

func (f *fakeAPI) ListOptions(_ context.Context, pollID uuid.UUID) domain.Envelope[[]domain.Option] {
	f.record("ListOptions")
	if f.listOptions == nil {
		return notFound[[]domain.Option]()
	}
	return f.listOptions(pollID)
}

func (f *fakeAPI) ListRollRanges(_ context.Context, pollID uuid.UUID) domain.Envelope[[]domain.RollRange] {
	f.record("ListRollRanges")
	if f.listRanges == nil {
		return notFound[[]domain.RollRange]()
	}
	return f.listRanges(pollID)
}

func (f *fakeAPI) DeletePoll(_ context.Context, id uuid.UUID) domain.Envelope[domain.Message] {
	f.record("DeletePoll")
	if f.deletePoll == nil {
		return notFound[domain.Message]()
	}
	return f.deletePoll(id)
}

func (f *fakeAPI) Vote(_ context.Context, optionID uuid.UUID) domain.Envelope[domain.Message] {
	f.record("Vote")
	if f.vote == nil {
		return notFound[domain.Message]()
	}
	return f.vote(optionID)
}

func (f *fakeAPI) CurrentUser(_ context.Context, accessToken string) domain.Envelope[domain.User] {
	f.record("CurrentUser")
	if f.currentUser == nil {
		return domain.Fail[domain.User](401, "Not authenticated", nil)
	}
	return f.currentUser(accessToken)
}

type memoryStore struct {
	mu      sync.Mutex
	tokens  domain.Tokens
	cleared int
}

func (m *memoryStore) Load(context.Context) (domain.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.tokens.Valid() {
		return domain.Tokens{}, errors.New("no tokens")
	}
	return m.tokens, nil
}

func (m *memoryStore) Save(_ context.Context, tokens domain.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokens
	return nil
}

func (m *memoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = domain.Tokens{}
	m.cleared++
	return nil
}

type fakeProvider struct {
	mu      sync.Mutex
	revoked []domain.Tokens
}

func (p *fakeProvider) AuthorizeURL(redirectTo string) (string, error) {
	return "https://auth.example.com/authorize?redirect_to=" + redirectTo, nil
}

func (p *fakeProvider) SignOut(_ context.Context, tokens domain.Tokens) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, tokens)
	return nil
}

func (p *fakeProvider) Revoked() []domain.Tokens {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Tokens{}, p.revoked...)
}

type mapCache struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[key]
	if !ok {
		return nil, false
	}
	return &u, true
}

func (c *mapCache) Set(_ context.Context, key string, user domain.User, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.users == nil {
		c.users = map[string]domain.User{}
	}
	c.users[key] = user
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, key)
	return nil
}

func ts(t time.Time) domain.Timestamp {
	return domain.NewTimestamp(t)
}
