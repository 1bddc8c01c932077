package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
)

type VoteAPI interface {
	Vote(ctx context.Context, optionID uuid.UUID) domain.Envelope[domain.Message]
}
