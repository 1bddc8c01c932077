package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_Phase(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	poll := Poll{
		StartTime: NewTimestamp(now.Add(-time.Hour)),
		EndTime:   NewTimestamp(now.Add(time.Hour)),
	}

	assert.Equal(t, PhaseOngoing, poll.Phase(now))
	assert.Equal(t, PhaseUpcoming, poll.Phase(now.Add(-2*time.Hour)))
	assert.Equal(t, PhaseEnded, poll.Phase(now.Add(2*time.Hour)))

	// A poll starting exactly now is not open yet.
	assert.False(t, poll.HasStarted(now.Add(-time.Hour)))
}

func TestPoll_CreatorHandle(t *testing.T) {
	poll := Poll{CreatorEmail: "u1904001@student.cuet.ac.bd"}
	assert.Equal(t, "1904001", poll.CreatorHandle())

	poll.CreatorEmail = "x"
	assert.Equal(t, "x", poll.CreatorHandle())
}

func TestPoll_AllowsRoll(t *testing.T) {
	poll := Poll{
		IsPrivate:  true,
		RollRanges: []RollRange{{Start: 1901001, End: 1901100}, {Start: 2104001, End: 2104132}},
	}

	assert.True(t, poll.AllowsRoll(1901001))
	assert.True(t, poll.AllowsRoll(2104132))
	assert.False(t, poll.AllowsRoll(2104133))

	poll.IsPrivate = false
	assert.True(t, poll.AllowsRoll(42))
}

func TestPoll_IsCreator(t *testing.T) {
	poll := Poll{CreatorEmail: "u1904001@student.cuet.ac.bd"}

	assert.True(t, poll.IsCreator(&User{Email: "U1904001@student.cuet.ac.bd"}))
	assert.False(t, poll.IsCreator(&User{Email: "u1904002@student.cuet.ac.bd"}))
	assert.False(t, poll.IsCreator(nil))
}

func TestPoll_DecodeZonelessTimestamps(t *testing.T) {
	payload := `{
		"id": "8d1f6c5e-7a43-4f9d-9a6b-0b1f2f0b4f11",
		"title": "Cafeteria menu",
		"created_at": "2024-10-01T09:30:00.123456",
		"start_time": "2024-10-01T10:00:00+06:00",
		"end_time": "2024-10-02T10:00:00Z",
		"options": [{"id": "0e6c3c2a-1f0e-4d44-9a43-6b1b2b8b8a01", "option_text": "Rice", "poll_id": "8d1f6c5e-7a43-4f9d-9a6b-0b1f2f0b4f11"}],
		"roll_ranges": [],
		"selected_option": null,
		"total_votes": 3
	}`

	var poll Poll
	require.NoError(t, json.Unmarshal([]byte(payload), &poll))

	assert.Equal(t, time.Date(2024, 10, 1, 9, 30, 0, 123456000, time.UTC), poll.CreatedAt.Time())
	assert.True(t, poll.StartTime.Time().Equal(time.Date(2024, 10, 1, 4, 0, 0, 0, time.UTC)))
	assert.False(t, poll.HasVoted())
	require.Len(t, poll.Options, 1)
	assert.Equal(t, "Rice", poll.Options[0].Text)

	_, ok := poll.Option(poll.Options[0].ID)
	assert.True(t, ok)
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}
