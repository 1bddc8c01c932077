package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
)

func makePolls(n int) []domain.Poll {
	polls := make([]domain.Poll, n)
	for i := range polls {
		polls[i] = domain.Poll{ID: uuid.New(), Title: fmt.Sprintf("Poll %d", i+1)}
	}
	return polls
}

// pagedBackend serves a fixed slice of polls honouring skip and limit.
func pagedBackend(all []domain.Poll) func(domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
	return func(in domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
		start := min(in.Skip, len(all))
		end := min(in.Skip+in.Limit, len(all))
		return domain.Ok(200, domain.PollsPage{Data: all[start:end], Count: len(all)})
	}
}

func TestNewPollList_UnknownCategory(t *testing.T) {
	_, err := NewPollList(&fakeAPI{}, "trending")
	require.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestPollList_LoadAndLoadMore(t *testing.T) {
	api := &fakeAPI{listPolls: pagedBackend(makePolls(25))}
	list, err := NewPollList(api, "all")
	require.NoError(t, err)
	defer list.Close()

	ctx := context.Background()

	// 1. First page
	require.NoError(t, list.Load(ctx))
	view := list.View()
	assert.Len(t, view.Polls, 20)
	assert.Equal(t, 25, view.Total)
	assert.True(t, view.CanLoadMore())

	// 2. Second page appends
	require.NoError(t, list.LoadMore(ctx))
	view = list.View()
	assert.Len(t, view.Polls, 25)
	assert.Equal(t, 20, view.Skip)
	assert.False(t, view.CanLoadMore())

	// 3. Nothing left
	require.ErrorIs(t, list.LoadMore(ctx), ErrNoMorePolls)
}

func TestPollList_LoadMoreDeduplicates(t *testing.T) {
	polls := makePolls(3)
	calls := 0
	api := &fakeAPI{listPolls: func(in domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
		calls++
		if in.Skip == 0 {
			return domain.Ok(200, domain.PollsPage{Data: polls[:2], Count: 3})
		}
		// A poll was inserted upstream; the page overlaps the previous one.
		return domain.Ok(200, domain.PollsPage{Data: []domain.Poll{polls[1], polls[2]}, Count: 3})
	}}
	list, err := NewPollList(api, "public", WithLimit(2))
	require.NoError(t, err)
	defer list.Close()

	require.NoError(t, list.Load(context.Background()))
	require.NoError(t, list.LoadMore(context.Background()))

	view := list.View()
	require.Len(t, view.Polls, 3)
	assert.Equal(t, polls[0].ID, view.Polls[0].ID)
	assert.Equal(t, polls[1].ID, view.Polls[1].ID)
	assert.Equal(t, polls[2].ID, view.Polls[2].ID)
	assert.Equal(t, 2, calls)
}

func TestPollList_CategoryAndSearchReachBackend(t *testing.T) {
	var got []domain.ListPollsInput
	var mu sync.Mutex
	api := &fakeAPI{listPolls: func(in domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
		mu.Lock()
		got = append(got, in)
		mu.Unlock()
		return domain.Ok(200, domain.PollsPage{})
	}}
	list, err := NewPollList(api, "ongoing-polls", WithSearchDelay(10*time.Millisecond))
	require.NoError(t, err)
	defer list.Close()

	require.NoError(t, list.Search(context.Background(), "   budget"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, domain.CategoryOngoing, got[0].Category)
	assert.Equal(t, "budget", got[0].Search)
	assert.Equal(t, 0, got[0].Skip)
	assert.Equal(t, DefaultPageLimit, got[0].Limit)
}

func TestPollList_SearchBurstFetchesOnce(t *testing.T) {
	var searches []string
	var mu sync.Mutex
	api := &fakeAPI{listPolls: func(in domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
		mu.Lock()
		searches = append(searches, in.Search)
		mu.Unlock()
		return domain.Ok(200, domain.PollsPage{Data: makePolls(1), Count: 1})
	}}
	list, err := NewPollList(api, "all", WithSearchDelay(50*time.Millisecond))
	require.NoError(t, err)
	defer list.Close()

	var wg sync.WaitGroup
	for _, text := range []string{"b", "bu", "bud"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, list.Search(context.Background(), text))
		}()
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"bud"}, searches)
	assert.Equal(t, "bud", list.View().Search)
}

func TestPollList_SearchResetsSkip(t *testing.T) {
	api := &fakeAPI{listPolls: pagedBackend(makePolls(30))}
	list, err := NewPollList(api, "all", WithSearchDelay(time.Millisecond))
	require.NoError(t, err)
	defer list.Close()

	ctx := context.Background()
	require.NoError(t, list.Load(ctx))
	require.NoError(t, list.LoadMore(ctx))
	require.Equal(t, 20, list.View().Skip)

	require.NoError(t, list.Search(ctx, "x"))
	view := list.View()
	assert.Equal(t, 0, view.Skip)
	assert.Len(t, view.Polls, 20)
}

func TestPollList_FailedFetchKeepsList(t *testing.T) {
	fail := false
	polls := makePolls(2)
	api := &fakeAPI{listPolls: func(domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
		if fail {
			return domain.Fail[domain.PollsPage](500, "", nil)
		}
		return domain.Ok(200, domain.PollsPage{Data: polls, Count: 2})
	}}
	list, err := NewPollList(api, "all")
	require.NoError(t, err)
	defer list.Close()

	require.NoError(t, list.Load(context.Background()))
	fail = true
	err = list.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrServer)

	view := list.View()
	assert.Len(t, view.Polls, 2)
	assert.False(t, view.Loading)
}

func TestPollList_RemoveAndDelete(t *testing.T) {
	polls := makePolls(3)
	api := &fakeAPI{
		listPolls: func(domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
			return domain.Ok(200, domain.PollsPage{Data: polls, Count: 3})
		},
		deletePoll: func(id uuid.UUID) domain.Envelope[domain.Message] {
			if id == polls[2].ID {
				return domain.Fail[domain.Message](403, "Not allowed", nil)
			}
			return domain.Ok(200, domain.Message{Message: "Poll deleted"})
		},
	}
	list, err := NewPollList(api, "my-polls")
	require.NoError(t, err)
	defer list.Close()
	require.NoError(t, list.Load(context.Background()))

	assert.True(t, list.Remove(polls[0].ID))
	assert.False(t, list.Remove(polls[0].ID))
	assert.Equal(t, 2, list.View().Total)

	require.NoError(t, list.Delete(context.Background(), polls[1].ID))
	require.ErrorIs(t, list.Delete(context.Background(), polls[2].ID), domain.ErrForbidden)

	view := list.View()
	require.Len(t, view.Polls, 1)
	assert.Equal(t, polls[2].ID, view.Polls[0].ID)
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, 1, api.count("ListPolls"))
}

func TestPollList_EmptyView(t *testing.T) {
	api := &fakeAPI{listPolls: func(domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
		return domain.Ok(200, domain.PollsPage{})
	}}
	list, err := NewPollList(api, "ended")
	require.NoError(t, err)
	defer list.Close()

	require.NoError(t, list.Load(context.Background()))
	assert.True(t, list.View().Empty())
	require.ErrorIs(t, list.LoadMore(context.Background()), ErrNoMorePolls)
}

func TestPollList_CloseReleasesSearch(t *testing.T) {
	api := &fakeAPI{listPolls: pagedBackend(nil)}
	list, err := NewPollList(api, "all", WithSearchDelay(time.Hour))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- list.Search(context.Background(), "slow") }()

	require.Eventually(t, func() bool { return list.View().Search == "slow" }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	list.Close()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("search still blocked after Close")
	}
	assert.Equal(t, 0, api.count("ListPolls"))
}
