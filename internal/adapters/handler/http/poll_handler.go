package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
)

const maxPages = 10

// Backend is the poll API as seen by one caller.
type Backend interface {
	ports.PollAPI
	ports.VoteAPI
}

// BackendFor binds the backend to the tokens of the current request.
type BackendFor func(tokens ports.TokenStore) Backend

type PollHandler struct {
	backend     BackendFor
	sessions    *services.SessionService
	frontendURL string
	cookies     CookieConfig
	clock       func() time.Time
	log         zerolog.Logger
}

type PollHandlerOption func(*PollHandler)

func WithClock(clock func() time.Time) PollHandlerOption {
	return func(h *PollHandler) { h.clock = clock }
}

func NewPollHandler(backend BackendFor, sessions *services.SessionService, frontendURL string, cookies CookieConfig, log zerolog.Logger, opts ...PollHandlerOption) *PollHandler {
	h := &PollHandler{
		backend:     backend,
		sessions:    sessions,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		cookies:     cookies,
		clock:       time.Now,
		log:         log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type listResponse struct {
	services.ListView
	CanLoadMore bool   `json:"can_load_more"`
	Notice      string `json:"notice,omitempty"`
}

// ListPolls serves /polls/{slug}?search=&limit=&pages=. Pages beyond the
// first are fetched with the same load-more path the client uses.
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	pages, _ := strconv.Atoi(query.Get("pages"))
	pages = max(1, min(pages, maxPages))

	backend := h.backend(newCookieStore(w, r, h.cookies))
	list, err := services.NewPollList(backend, chi.URLParam(r, "slug"),
		services.WithLimit(limit),
		services.WithSearchDelay(0),
		services.WithListLogger(h.log),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	defer list.Close()

	if search := query.Get("search"); search != "" {
		err = list.Search(r.Context(), search)
	} else {
		err = list.Load(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	for page := 1; page < pages && list.View().CanLoadMore(); page++ {
		if err := list.LoadMore(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}

	view := list.View()
	resp := listResponse{ListView: view, CanLoadMore: view.CanLoadMore()}
	if view.Empty() {
		resp.Notice = services.NoPollsFound
	}
	writeOK(w, http.StatusOK, resp)
}

type pollResponse struct {
	Poll             *domain.Poll       `json:"poll"`
	State            services.VoteState `json:"state"`
	Phase            domain.PollPhase   `json:"phase"`
	Countdown        string             `json:"countdown"`
	CountdownSeconds int64              `json:"countdown_seconds"`
	Creator          string             `json:"creator"`
	SelectedOptionID *uuid.UUID         `json:"selected_option_id"`
	Result           *domain.PollResult `json:"result"`
	ShareURL         string             `json:"share_url"`
}

func (h *PollHandler) loadVote(w http.ResponseWriter, r *http.Request, id string) (*services.PollVote, bool) {
	backend := h.backend(newCookieStore(w, r, h.cookies))
	vote, err := services.NewPollVote(backend, backend, id,
		services.WithSubmitDelay(0),
		services.WithVoteLogger(h.log),
	)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if err := vote.Load(r.Context(), h.clock()); err != nil {
		vote.Close()
		writeError(w, err)
		return nil, false
	}
	return vote, true
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	vote, ok := h.loadVote(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	defer vote.Close()

	now := h.clock()
	poll := vote.Poll()
	label, remaining := domain.Countdown(now, poll.StartTime.Time(), poll.EndTime.Time())

	resp := pollResponse{
		Poll:             poll,
		State:            vote.State(),
		Phase:            poll.Phase(now),
		Countdown:        label,
		CountdownSeconds: int64(remaining / time.Second),
		Creator:          poll.CreatorHandle(),
		Result:           vote.Result(),
		ShareURL:         vote.ShareURL(h.frontendURL),
	}
	if selected, ok := vote.Selected(); ok {
		resp.SelectedOptionID = &selected
	}
	writeOK(w, http.StatusOK, resp)
}

type voteRequest struct {
	OptionID uuid.UUID `json:"option_id"`
}

// Vote runs select, confirm and submit in one go; the browser already asked
// the user to confirm.
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	vote, ok := h.loadVote(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	defer vote.Close()

	if err := vote.Select(req.OptionID, h.clock()); err != nil {
		writeError(w, err)
		return
	}
	if err := vote.RequestConfirm(); err != nil {
		writeError(w, err)
		return
	}

	outcome, err := vote.Confirm(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, outcome)
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	store := newCookieStore(w, r, h.cookies)
	session, err := h.sessions.Resolve(r.Context(), store)
	if err != nil {
		writeError(w, err)
		return
	}
	if !session.Authenticated() {
		writeError(w, domain.ErrNotAuthenticated)
		return
	}

	vote, ok := h.loadVote(w, r, chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	defer vote.Close()

	outcome, err := vote.Delete(r.Context(), session.User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, outcome)
}

// CreatePoll takes a whole draft, walks it through the wizard steps and
// publishes it.
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	draft := services.DefaultDraft(now)
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	backend := h.backend(newCookieStore(w, r, h.cookies))
	wizard := services.NewPollWizard(backend, now,
		services.WithDraft(draft),
		services.WithWizardSubmitDelay(0),
		services.WithWizardLogger(h.log),
	)
	defer wizard.Close()

	if err := wizard.Advance(now); err != nil {
		writeError(w, err)
		return
	}

	report, err := wizard.Submit(r.Context(), now)
	if err != nil {
		writeError(w, err, report)
		return
	}
	writeOK(w, http.StatusCreated, report)
}
