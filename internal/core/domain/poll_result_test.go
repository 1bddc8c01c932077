package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeResult(t *testing.T) {
	tests := []struct {
		name        string
		raw         RawPollResult
		percentages []float64
		winners     []bool
		highlighted []bool
	}{
		{
			name: "single winner",
			raw: RawPollResult{
				Data:       []OptionTally{{Text: "A", Votes: 7}, {Text: "B", Votes: 3}},
				TotalVotes: 10,
			},
			percentages: []float64{70.00, 30.00},
			winners:     []bool{true, false},
			highlighted: []bool{true, false},
		},
		{
			name: "tie at maximum flags every tied option",
			raw: RawPollResult{
				Data:       []OptionTally{{Text: "A", Votes: 4}, {Text: "B", Votes: 4}, {Text: "C", Votes: 2}},
				TotalVotes: 10,
			},
			percentages: []float64{40, 40, 20},
			winners:     []bool{true, true, false},
			highlighted: []bool{true, true, false},
		},
		{
			name: "no votes",
			raw: RawPollResult{
				Data:       []OptionTally{{Text: "A"}, {Text: "B"}},
				TotalVotes: 0,
			},
			percentages: []float64{0, 0},
			winners:     []bool{true, true},
			highlighted: []bool{false, false},
		},
		{
			name: "rounds to two decimals",
			raw: RawPollResult{
				Data:       []OptionTally{{Text: "A", Votes: 1}, {Text: "B", Votes: 2}},
				TotalVotes: 3,
			},
			percentages: []float64{33.33, 66.67},
			winners:     []bool{false, true},
			highlighted: []bool{false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeResult(tt.raw)
			require.Len(t, result.Options, len(tt.percentages))
			assert.Equal(t, tt.raw.TotalVotes, result.TotalVotes)

			for i, opt := range result.Options {
				assert.InDelta(t, tt.percentages[i], opt.Percentage, 0.0001, "percentage of %s", opt.Text)
				assert.Equal(t, tt.winners[i], opt.Winner, "winner flag of %s", opt.Text)
				assert.Equal(t, tt.highlighted[i], opt.Highlighted(), "highlight of %s", opt.Text)
			}
		})
	}
}

func TestComputeResult_Empty(t *testing.T) {
	result := ComputeResult(RawPollResult{})
	assert.Empty(t, result.Options)
	assert.Empty(t, result.Winners())
}

func TestPollResult_Winners(t *testing.T) {
	result := ComputeResult(RawPollResult{
		Data:       []OptionTally{{Text: "A", Votes: 5}, {Text: "B", Votes: 1}, {Text: "C", Votes: 5}},
		TotalVotes: 11,
	})

	winners := result.Winners()
	require.Len(t, winners, 2)
	assert.Equal(t, "A", winners[0].Text)
	assert.Equal(t, "C", winners[1].Text)
}
