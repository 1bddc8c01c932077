package domain

import (
	"math"

	"github.com/samber/lo"
)

// OptionTally is one row of the raw result returned by the backend.
type OptionTally struct {
	Text  string `json:"option_text"`
	Votes int    `json:"votes"`
}

type RawPollResult struct {
	Data       []OptionTally `json:"data"`
	TotalVotes int           `json:"total_votes"`
}

type OptionResult struct {
	Text       string  `json:"option_text"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"votes_percentage"`
	Winner     bool    `json:"is_winner"`
}

// Highlighted reports whether the option gets the winner treatment. A tie
// at zero votes flags every option as winner but highlights none.
func (o OptionResult) Highlighted() bool {
	return o.Winner && o.Votes > 0
}

type PollResult struct {
	Options    []OptionResult `json:"data"`
	TotalVotes int            `json:"total_votes"`
}

func (r *PollResult) Winners() []OptionResult {
	return lo.Filter(r.Options, func(o OptionResult, _ int) bool {
		return o.Winner
	})
}

func ComputeResult(raw RawPollResult) *PollResult {
	maxVotes := 0
	if len(raw.Data) > 0 {
		maxVotes = lo.MaxBy(raw.Data, func(a, b OptionTally) bool {
			return a.Votes > b.Votes
		}).Votes
	}

	return &PollResult{
		TotalVotes: raw.TotalVotes,
		Options: lo.Map(raw.Data, func(t OptionTally, _ int) OptionResult {
			return OptionResult{
				Text:       t.Text,
				Votes:      t.Votes,
				Percentage: Percentage(t.Votes, raw.TotalVotes),
				Winner:     t.Votes == maxVotes,
			}
		}),
	}
}

// Percentage is votes/total*100 rounded to two decimals, zero when there are
// no votes at all.
func Percentage(votes, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(votes)/float64(total)*100*100) / 100
}
