package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Poll struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	IsPrivate      bool        `json:"is_private"`
	CreatorEmail   string      `json:"creator_email"`
	CreatedAt      Timestamp   `json:"created_at"`
	StartTime      Timestamp   `json:"start_time"`
	EndTime        Timestamp   `json:"end_time"`
	RollRanges     []RollRange `json:"roll_ranges"`
	Options        []Option    `json:"options"`
	SelectedOption *Option     `json:"selected_option"`
	TotalVotes     int         `json:"total_votes"`
}

type Option struct {
	ID     uuid.UUID `json:"id"`
	Text   string    `json:"option_text"`
	PollID uuid.UUID `json:"poll_id"`
}

// RollRange is an inclusive interval of student ids allowed to vote on a
// private poll.
type RollRange struct {
	ID     uuid.UUID `json:"id"`
	PollID uuid.UUID `json:"poll_id"`
	Start  int       `json:"start"`
	End    int       `json:"end"`
}

func (r RollRange) Contains(roll int) bool {
	return r.Start <= roll && roll <= r.End
}

type PollPhase string

const (
	PhaseUpcoming PollPhase = "upcoming"
	PhaseOngoing  PollPhase = "ongoing"
	PhaseEnded    PollPhase = "ended"
)

// HasStarted mirrors the vote page guard: a poll whose start time is not
// strictly before now is still closed for selection.
func (p *Poll) HasStarted(now time.Time) bool {
	return p.StartTime.Time().Before(now)
}

func (p *Poll) HasEnded(now time.Time) bool {
	return p.EndTime.Time().Before(now)
}

func (p *Poll) Phase(now time.Time) PollPhase {
	switch {
	case !p.HasStarted(now):
		return PhaseUpcoming
	case p.HasEnded(now):
		return PhaseEnded
	default:
		return PhaseOngoing
	}
}

func (p *Poll) HasVoted() bool {
	return p.SelectedOption != nil
}

func (p *Poll) Option(id uuid.UUID) (Option, bool) {
	for _, opt := range p.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// CreatorHandle is the creator's student id as encoded in campus e-mail
// addresses (u1904001@... -> 1904001).
func (p *Poll) CreatorHandle() string {
	local, _, _ := strings.Cut(p.CreatorEmail, "@")
	if len(local) <= 1 {
		return local
	}
	return local[1:]
}

func (p *Poll) IsCreator(user *User) bool {
	return user != nil && user.Email != "" && strings.EqualFold(user.Email, p.CreatorEmail)
}

// AllowsRoll reports whether a student may vote. Public polls and polls
// without ranges admit everyone.
func (p *Poll) AllowsRoll(roll int) bool {
	if !p.IsPrivate || len(p.RollRanges) == 0 {
		return true
	}
	for _, r := range p.RollRanges {
		if r.Contains(roll) {
			return true
		}
	}
	return false
}

type PollsPage struct {
	Data  []Poll `json:"data"`
	Count int    `json:"count"`
}

type CreatePollInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsPrivate   bool      `json:"is_private"`
}

type CreatedPoll struct {
	PollID uuid.UUID `json:"poll_id"`
}

type ListPollsInput struct {
	Category Category
	Search   string
	Limit    int
	Skip     int
}

type Message struct {
	Message string `json:"message"`
}
