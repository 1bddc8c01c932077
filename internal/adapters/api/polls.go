package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
)

const (
	pollsPath = "/api/v1/polls"
	votesPath = "/api/v1/votes"
	usersPath = "/api/v1/users"
)

type createPollRequest struct {
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsPrivate   bool      `json:"is_private"`
}

type addOptionsRequest struct {
	OptionTexts []string `json:"option_texts"`
}

type addRollRangesRequest struct {
	RollRanges [][2]int `json:"roll_ranges"`
}

type optionsPage struct {
	Data  []domain.Option `json:"data"`
	Count int             `json:"count"`
}

type rollRangesPage struct {
	Data  []domain.RollRange `json:"data"`
	Count int                `json:"count"`
}

// ListPolls hits /api/v1/polls/{category} with search, limit and skip. The
// "all" category is served by the bare collection path.
func (c *Client) ListPolls(ctx context.Context, input domain.ListPollsInput) domain.Envelope[domain.PollsPage] {
	query := url.Values{}
	query.Set("search", input.Search)
	query.Set("limit", strconv.Itoa(input.Limit))
	query.Set("skip", strconv.Itoa(input.Skip))

	return call[domain.PollsPage](ctx, c, request{
		method: http.MethodGet,
		path:   pollsPath + "/" + input.Category.PathSegment(),
		query:  query,
	})
}

func (c *Client) GetPoll(ctx context.Context, id uuid.UUID) domain.Envelope[domain.Poll] {
	return call[domain.Poll](ctx, c, request{
		method: http.MethodGet,
		path:   pollsPath + "/" + id.String(),
	})
}

func (c *Client) GetPollResult(ctx context.Context, id uuid.UUID) domain.Envelope[domain.RawPollResult] {
	return call[domain.RawPollResult](ctx, c, request{
		method: http.MethodGet,
		path:   pollsPath + "/" + id.String() + "/result",
	})
}

func (c *Client) CreatePoll(ctx context.Context, input domain.CreatePollInput) domain.Envelope[domain.CreatedPoll] {
	body := createPollRequest{
		Title:     input.Title,
		StartTime: input.StartTime.UTC(),
		EndTime:   input.EndTime.UTC(),
		IsPrivate: input.IsPrivate,
	}
	if input.Description != "" {
		body.Description = &input.Description
	}

	return call[domain.CreatedPoll](ctx, c, request{
		method: http.MethodPost,
		path:   pollsPath + "/create",
		body:   body,
	})
}

func (c *Client) AddOptions(ctx context.Context, pollID uuid.UUID, texts []string) domain.Envelope[domain.Message] {
	return call[domain.Message](ctx, c, request{
		method: http.MethodPost,
		path:   pollsPath + "/" + pollID.String() + "/options",
		body:   addOptionsRequest{OptionTexts: texts},
	})
}

func (c *Client) AddRollRanges(ctx context.Context, pollID uuid.UUID, ranges [][2]int) domain.Envelope[domain.Message] {
	return call[domain.Message](ctx, c, request{
		method: http.MethodPost,
		path:   pollsPath + "/" + pollID.String() + "/roll-ranges",
		body:   addRollRangesRequest{RollRanges: ranges},
	})
}

func (c *Client) ListOptions(ctx context.Context, pollID uuid.UUID) domain.Envelope[[]domain.Option] {
	env := call[optionsPage](ctx, c, request{
		method: http.MethodGet,
		path:   pollsPath + "/" + pollID.String() + "/options",
	})
	return domain.MapEnvelope(env, func(p optionsPage) []domain.Option { return p.Data })
}

func (c *Client) ListRollRanges(ctx context.Context, pollID uuid.UUID) domain.Envelope[[]domain.RollRange] {
	env := call[rollRangesPage](ctx, c, request{
		method: http.MethodGet,
		path:   pollsPath + "/" + pollID.String() + "/roll-ranges",
	})
	return domain.MapEnvelope(env, func(p rollRangesPage) []domain.RollRange { return p.Data })
}

func (c *Client) DeletePoll(ctx context.Context, id uuid.UUID) domain.Envelope[domain.Message] {
	return call[domain.Message](ctx, c, request{
		method: http.MethodDelete,
		path:   pollsPath + "/" + id.String(),
	})
}

func (c *Client) Vote(ctx context.Context, optionID uuid.UUID) domain.Envelope[domain.Message] {
	return call[domain.Message](ctx, c, request{
		method: http.MethodPost,
		path:   votesPath + "/vote",
		body:   domain.VoteInput{OptionID: optionID},
	})
}

func (c *Client) CurrentUser(ctx context.Context, accessToken string) domain.Envelope[domain.User] {
	return call[domain.User](ctx, c, request{
		method: http.MethodGet,
		path:   usersPath + "/current",
		token:  accessToken,
	})
}
