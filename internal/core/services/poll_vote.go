package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
	"github.com/vncsmyrnk/campuspoll/internal/debounce"
)

const (
	DefaultSubmitDelay = 300 * time.Millisecond
	VoteRedirectAfter  = 200 * time.Millisecond
	PollsHomePath      = "/polls/all"
)

type VoteState string

const (
	StateLoading        VoteState = "loading"
	StateViewingOptions VoteState = "viewing-options"
	StateOptionSelected VoteState = "option-selected"
	StateConfirming     VoteState = "confirming"
	StateSubmitting     VoteState = "submitting"
	StateVoted          VoteState = "voted"
	StateViewingResults VoteState = "viewing-results"
)

// Outcome tells the caller what to show and where to navigate after an
// action succeeded.
type Outcome struct {
	Message       string        `json:"message"`
	Redirect      string        `json:"redirect"`
	RedirectAfter time.Duration `json:"redirect_after"`
}

// PollVote drives a single poll from loading through voting to results.
type PollVote struct {
	polls  ports.PollAPI
	votes  ports.VoteAPI
	pollID uuid.UUID
	log    zerolog.Logger
	delay  time.Duration

	mu       sync.Mutex
	state    VoteState
	poll     *domain.Poll
	result   *domain.PollResult
	selected uuid.UUID

	submit *debounce.Call[uuid.UUID, Outcome]
}

type PollVoteOption func(*PollVote)

func WithSubmitDelay(d time.Duration) PollVoteOption {
	return func(v *PollVote) { v.delay = d }
}

func WithVoteLogger(log zerolog.Logger) PollVoteOption {
	return func(v *PollVote) { v.log = log }
}

func NewPollVote(polls ports.PollAPI, votes ports.VoteAPI, pollID string, opts ...PollVoteOption) (*PollVote, error) {
	id, err := uuid.Parse(strings.TrimSpace(pollID))
	if err != nil {
		return nil, domain.ErrInvalidPollID
	}

	v := &PollVote{
		polls:  polls,
		votes:  votes,
		pollID: id,
		log:    zerolog.Nop(),
		delay:  DefaultSubmitDelay,
		state:  StateLoading,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.submit = debounce.NewCall(v.delay, v.castVote)
	return v, nil
}

// Load fetches the poll and, when available, its result. A missing result is
// expected while the poll is running.
func (v *PollVote) Load(ctx context.Context, now time.Time) error {
	v.mu.Lock()
	v.state = StateLoading
	v.mu.Unlock()

	env := v.polls.GetPoll(ctx, v.pollID)
	if !env.Success {
		v.log.Warn().Str("poll_id", v.pollID.String()).Int("status", env.Status).Msg("Failed to fetch poll.")
		return fmt.Errorf("failed to fetch poll: %w", env.Err())
	}
	poll := env.Data
	v.fillPoll(ctx, &poll)

	var result *domain.PollResult
	if res := v.polls.GetPollResult(ctx, v.pollID); res.Success {
		result = domain.ComputeResult(res.Data)
	} else {
		v.log.Debug().Str("poll_id", v.pollID.String()).Str("message", res.Message).Msg("Poll result not available.")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.poll = &poll
	v.result = result
	v.selected = uuid.Nil
	if poll.SelectedOption != nil {
		v.selected = poll.SelectedOption.ID
	}

	switch {
	case result != nil, poll.HasVoted(), poll.HasEnded(now):
		v.state = StateViewingResults
	default:
		v.state = StateViewingOptions
	}
	return nil
}

// fillPoll fetches the options and voter ranges a poll payload left out.
// Either list failing leaves the poll as it came.
func (v *PollVote) fillPoll(ctx context.Context, poll *domain.Poll) {
	if len(poll.Options) == 0 {
		if env := v.polls.ListOptions(ctx, v.pollID); env.Success {
			poll.Options = env.Data
		} else {
			v.log.Debug().Str("poll_id", v.pollID.String()).Int("status", env.Status).Msg("Failed to list poll options.")
		}
	}
	if poll.IsPrivate && len(poll.RollRanges) == 0 {
		if env := v.polls.ListRollRanges(ctx, v.pollID); env.Success {
			poll.RollRanges = env.Data
		} else {
			v.log.Debug().Str("poll_id", v.pollID.String()).Int("status", env.Status).Msg("Failed to list roll ranges.")
		}
	}
}

// Select picks an option. Polls already voted on, not yet started or ended
// refuse the selection.
func (v *PollVote) Select(optionID uuid.UUID, now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.poll == nil {
		return ErrInvalidTransition
	}
	if v.poll.HasVoted() {
		return domain.ErrAlreadyVoted
	}
	if !v.poll.HasStarted(now) {
		return domain.ErrPollNotStarted
	}
	if v.poll.HasEnded(now) {
		return domain.ErrPollEnded
	}
	if v.state != StateViewingOptions && v.state != StateOptionSelected {
		return ErrInvalidTransition
	}
	if _, ok := v.poll.Option(optionID); !ok {
		return domain.ErrInvalidOption
	}

	v.selected = optionID
	v.state = StateOptionSelected
	return nil
}

// SelectIndex selects the option at a one-based position.
func (v *PollVote) SelectIndex(position int, now time.Time) error {
	v.mu.Lock()
	if v.poll == nil {
		v.mu.Unlock()
		return ErrInvalidTransition
	}
	if position < 1 || position > len(v.poll.Options) {
		v.mu.Unlock()
		return domain.ErrInvalidOption
	}
	id := v.poll.Options[position-1].ID
	v.mu.Unlock()

	return v.Select(id, now)
}

func (v *PollVote) RequestConfirm() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateOptionSelected {
		if v.selected == uuid.Nil {
			return ErrNoSelection
		}
		return ErrInvalidTransition
	}
	v.state = StateConfirming
	return nil
}

// Dismiss closes the confirmation without voting. The selection is kept.
func (v *PollVote) Dismiss() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == StateConfirming {
		v.state = StateOptionSelected
	}
}

// Confirm submits the selected option once. It is never retried; a failure
// returns to the selection with the option still chosen. When ctx ends
// first the vote may still land: the error wraps ErrSubmitInProgress and
// State reports the outcome once the call finishes.
func (v *PollVote) Confirm(ctx context.Context) (Outcome, error) {
	v.mu.Lock()
	switch v.state {
	case StateConfirming:
	case StateSubmitting:
		v.mu.Unlock()
		return Outcome{}, ErrSubmitInProgress
	default:
		v.mu.Unlock()
		return Outcome{}, ErrInvalidTransition
	}
	v.state = StateSubmitting
	optionID := v.selected
	v.mu.Unlock()

	out, err := v.submit.Do(ctx, optionID)
	switch {
	case errors.Is(err, debounce.ErrStopped):
		// The vote was never sent.
		v.mu.Lock()
		if v.state == StateSubmitting {
			v.state = StateOptionSelected
		}
		v.mu.Unlock()
	case err != nil && ctx.Err() != nil:
		// The trailing call still runs and castVote settles the state.
		return out, fmt.Errorf("%w: %w", ErrSubmitInProgress, err)
	}
	return out, err
}

func (v *PollVote) castVote(ctx context.Context, optionID uuid.UUID) (Outcome, error) {
	env := v.votes.Vote(ctx, optionID)

	v.mu.Lock()
	defer v.mu.Unlock()

	if !env.Success {
		v.state = StateOptionSelected
		v.log.Warn().Str("poll_id", v.pollID.String()).Int("status", env.Status).Str("message", env.Message).Msg("Vote rejected.")
		return Outcome{}, fmt.Errorf("failed to vote: %w", env.Err())
	}

	v.state = StateVoted
	if v.poll != nil {
		if opt, ok := v.poll.Option(optionID); ok {
			v.poll.SelectedOption = &opt
		}
	}
	v.log.Info().Str("poll_id", v.pollID.String()).Msg("Vote cast.")

	return Outcome{
		Message:       env.Data.Message,
		Redirect:      PollsHomePath,
		RedirectAfter: VoteRedirectAfter,
	}, nil
}

// Delete removes the poll. Only its creator may do so.
func (v *PollVote) Delete(ctx context.Context, user *domain.User) (Outcome, error) {
	v.mu.Lock()
	poll := v.poll
	v.mu.Unlock()

	if poll == nil {
		return Outcome{}, ErrInvalidTransition
	}
	if !poll.IsCreator(user) {
		return Outcome{}, domain.ErrNotCreator
	}

	env := v.polls.DeletePoll(ctx, v.pollID)
	if !env.Success {
		return Outcome{}, fmt.Errorf("failed to delete poll: %w", env.Err())
	}
	return Outcome{Message: env.Data.Message, Redirect: PollsHomePath}, nil
}

func (v *PollVote) ShareURL(frontendURL string) string {
	return strings.TrimRight(frontendURL, "/") + "/polls/vote/" + v.pollID.String()
}

func (v *PollVote) State() VoteState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Poll returns a copy of the loaded poll, nil before Load succeeded.
func (v *PollVote) Poll() *domain.Poll {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.poll == nil {
		return nil
	}
	p := *v.poll
	return &p
}

func (v *PollVote) Result() *domain.PollResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result
}

func (v *PollVote) Selected() (uuid.UUID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected, v.selected != uuid.Nil
}

func (v *PollVote) CanSubmit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == StateOptionSelected
}

func (v *PollVote) ID() uuid.UUID {
	return v.pollID
}

// Close releases a caller still waiting on a debounced vote.
func (v *PollVote) Close() {
	v.submit.Stop()
}
