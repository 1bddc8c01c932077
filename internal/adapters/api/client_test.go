package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
)

type staticTokens struct {
	tokens domain.Tokens
}

func (s *staticTokens) Load(context.Context) (domain.Tokens, error) { return s.tokens, nil }
func (s *staticTokens) Save(_ context.Context, t domain.Tokens) error {
	s.tokens = t
	return nil
}
func (s *staticTokens) Clear(context.Context) error {
	s.tokens = domain.Tokens{}
	return nil
}

func newTestClient(t *testing.T, router http.Handler, token string) *Client {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, WithTokenStore(&staticTokens{tokens: domain.Tokens{AccessToken: token}}))
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListPolls_SuccessEnvelope(t *testing.T) {
	pollID := uuid.New()
	var gotAuth, gotPath, gotQuery string

	r := chi.NewRouter()
	r.Get("/api/v1/polls/*", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{
				"id":            pollID,
				"title":         "Cafeteria menu",
				"creator_email": "u1904001@student.cuet.ac.bd",
				"created_at":    "2024-10-01T09:30:00",
				"start_time":    "2024-10-01T10:00:00",
				"end_time":      "2024-10-02T10:00:00",
				"options":       []any{},
				"roll_ranges":   []any{},
				"total_votes":   4,
			}},
			"count": 1,
		})
	})

	client := newTestClient(t, r, "access-1")
	env := client.ListPolls(context.Background(), domain.ListPollsInput{
		Category: domain.CategoryAll,
		Search:   "menu",
		Limit:    20,
		Skip:     0,
	})

	require.True(t, env.Success, env.Message)
	assert.Equal(t, domain.MessageSuccessful, env.Message)
	assert.Nil(t, env.Errors)
	assert.Equal(t, 1, env.Data.Count)
	require.Len(t, env.Data.Data, 1)
	assert.Equal(t, pollID, env.Data.Data[0].ID)
	assert.Equal(t, 4, env.Data.Data[0].TotalVotes)

	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Equal(t, "/api/v1/polls/", gotPath)
	assert.Equal(t, "limit=20&search=menu&skip=0", gotQuery)
}

func TestListPolls_CategoryPath(t *testing.T) {
	var gotPath string
	r := chi.NewRouter()
	r.Get("/api/v1/polls/*", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}, "count": 0})
	})

	client := newTestClient(t, r, "")
	env := client.ListPolls(context.Background(), domain.ListPollsInput{Category: domain.CategoryEnded, Limit: 5, Skip: 10})

	require.True(t, env.Success)
	assert.Equal(t, "/api/v1/polls/ended-polls", gotPath)
	assert.Empty(t, env.Data.Data)
}

func TestCall_ErrorDetailString(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/polls/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Poll not found"})
	})

	client := newTestClient(t, r, "token")
	env := client.GetPoll(context.Background(), uuid.New())

	assert.False(t, env.Success)
	assert.Equal(t, "Poll not found", env.Message)
	assert.Equal(t, http.StatusNotFound, env.Status)
	assert.Equal(t, uuid.Nil, env.Data.ID)
	assert.True(t, errors.Is(env.Err(), domain.ErrNotFound))
}

func TestCall_ValidationDetailList(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/polls/create", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{
				{"loc": []string{"body", "title"}, "msg": "field required"},
				{"loc": []string{"body", "end_time"}, "msg": "invalid datetime"},
			},
		})
	})

	client := newTestClient(t, r, "token")
	env := client.CreatePoll(context.Background(), domain.CreatePollInput{})

	assert.False(t, env.Success)
	assert.Equal(t, "field required", env.Message)
	assert.Equal(t, []string{"field required", "invalid datetime"}, env.Errors)
	assert.True(t, errors.Is(env.Err(), domain.ErrBadRequest))
}

func TestCall_UndecodableErrorBodyFallsBackToStatusText(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/api/v1/polls/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := newTestClient(t, r, "token")
	env := client.DeletePoll(context.Background(), uuid.New())

	assert.False(t, env.Success)
	assert.Equal(t, "Internal Server Error", env.Message)
	assert.True(t, errors.Is(env.Err(), domain.ErrServer))
}

func TestCall_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(url, WithTimeout(time.Second))
	require.NoError(t, err)

	env := client.CurrentUser(context.Background(), "token")
	assert.False(t, env.Success)
	assert.Equal(t, domain.MessageFetchFailed, env.Message)
	assert.Zero(t, env.Status)
	assert.True(t, errors.Is(env.Err(), domain.ErrTransport))
}

func TestCurrentUser_ExplicitTokenWins(t *testing.T) {
	var gotAuth string
	r := chi.NewRouter()
	r.Get("/api/v1/users/current", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, domain.User{Email: "u1904001@student.cuet.ac.bd", FullName: "Rahim Uddin", Roll: 1904001})
	})

	client := newTestClient(t, r, "stored")
	env := client.CurrentUser(context.Background(), "fresh")

	require.True(t, env.Success)
	assert.Equal(t, "Bearer fresh", gotAuth)
	assert.Equal(t, 1904001, env.Data.Roll)
}

func TestCreatePollSequenceBodies(t *testing.T) {
	pollID := uuid.New()
	bodies := map[string]map[string]any{}

	capture := func(name string, status int, reply any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			var decoded map[string]any
			_ = json.Unmarshal(raw, &decoded)
			bodies[name] = decoded
			writeJSON(w, status, reply)
		}
	}

	r := chi.NewRouter()
	r.Post("/api/v1/polls/create", capture("create", http.StatusOK, map[string]any{"poll_id": pollID}))
	r.Post("/api/v1/polls/{id}/options", capture("options", http.StatusOK, map[string]any{"message": "Options added successfully"}))
	r.Post("/api/v1/polls/{id}/roll-ranges", capture("ranges", http.StatusOK, map[string]any{"message": "Roll ranges added successfully"}))
	r.Post("/api/v1/votes/vote", capture("vote", http.StatusOK, map[string]any{"message": "Voted successfully"}))

	client := newTestClient(t, r, "token")
	ctx := context.Background()
	start := time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)

	created := client.CreatePoll(ctx, domain.CreatePollInput{
		Title:     "Cafeteria menu",
		StartTime: start,
		EndTime:   start.Add(24 * time.Hour),
		IsPrivate: true,
	})
	require.True(t, created.Success)
	assert.Equal(t, pollID, created.Data.PollID)
	assert.Equal(t, "Cafeteria menu", bodies["create"]["title"])
	assert.Nil(t, bodies["create"]["description"])
	assert.Equal(t, true, bodies["create"]["is_private"])
	assert.Equal(t, "2024-10-01T10:00:00Z", bodies["create"]["start_time"])

	options := client.AddOptions(ctx, pollID, []string{"Rice", "Noodles"})
	require.True(t, options.Success)
	assert.Equal(t, "Options added successfully", options.Data.Message)
	assert.Equal(t, []any{"Rice", "Noodles"}, bodies["options"]["option_texts"])

	ranges := client.AddRollRanges(ctx, pollID, [][2]int{{2104001, 2104132}})
	require.True(t, ranges.Success)
	assert.Equal(t, []any{[]any{float64(2104001), float64(2104132)}}, bodies["ranges"]["roll_ranges"])

	optionID := uuid.New()
	vote := client.Vote(ctx, optionID)
	require.True(t, vote.Success)
	assert.Equal(t, optionID.String(), bodies["vote"]["option_id"])
}

func TestListOptionsAndRanges(t *testing.T) {
	pollID := uuid.New()
	r := chi.NewRouter()
	r.Get("/api/v1/polls/{id}/options", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []map[string]any{{"id": uuid.New(), "option_text": "Rice", "poll_id": pollID}},
			"count": 1,
		})
	})
	r.Get("/api/v1/polls/{id}/roll-ranges", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You are not authorized to view this poll"})
	})

	client := newTestClient(t, r, "token")

	options := client.ListOptions(context.Background(), pollID)
	require.True(t, options.Success)
	require.Len(t, options.Data, 1)
	assert.Equal(t, "Rice", options.Data[0].Text)

	ranges := client.ListRollRanges(context.Background(), pollID)
	assert.False(t, ranges.Success)
	assert.Nil(t, ranges.Data)
	assert.True(t, errors.Is(ranges.Err(), domain.ErrForbidden))
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("/api")
	assert.Error(t, err)
}

func TestNewClient_TimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	before, err := NewClient("https://api.example.edu", WithTimeout(3*time.Second), WithHTTPClient(shared))
	require.NoError(t, err)
	after, err := NewClient("https://api.example.edu", WithHTTPClient(shared), WithTimeout(3*time.Second))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, 3*time.Second, before.http.Timeout)
	assert.Equal(t, 3*time.Second, after.http.Timeout)
	assert.NotSame(t, shared, after.http)
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	client, err := NewClient("https://api.example.edu")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, client.http.Timeout)
}

func TestNewClient_KeepsSharedClientTimeout(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	client, err := NewClient("https://api.example.edu", WithHTTPClient(shared))
	require.NoError(t, err)
	assert.Same(t, shared, client.http)
	assert.Equal(t, time.Minute, client.http.Timeout)
}
