package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
)

// PollAPI is the remote poll backend. Every call resolves to an envelope;
// failures are values, never Go errors.
type PollAPI interface {
	ListPolls(ctx context.Context, input domain.ListPollsInput) domain.Envelope[domain.PollsPage]
	GetPoll(ctx context.Context, id uuid.UUID) domain.Envelope[domain.Poll]
	GetPollResult(ctx context.Context, id uuid.UUID) domain.Envelope[domain.RawPollResult]
	CreatePoll(ctx context.Context, input domain.CreatePollInput) domain.Envelope[domain.CreatedPoll]
	AddOptions(ctx context.Context, pollID uuid.UUID, texts []string) domain.Envelope[domain.Message]
	AddRollRanges(ctx context.Context, pollID uuid.UUID, ranges [][2]int) domain.Envelope[domain.Message]
	ListOptions(ctx context.Context, pollID uuid.UUID) domain.Envelope[[]domain.Option]
	ListRollRanges(ctx context.Context, pollID uuid.UUID) domain.Envelope[[]domain.RollRange]
	DeletePoll(ctx context.Context, id uuid.UUID) domain.Envelope[domain.Message]
}
