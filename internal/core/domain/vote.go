package domain

import "github.com/google/uuid"

type VoteInput struct {
	OptionID uuid.UUID `json:"option_id"`
}
