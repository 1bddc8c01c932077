package http

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/services"
	"github.com/vncsmyrnk/campuspoll/internal/debounce"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeOK[T any](w http.ResponseWriter, status int, data T) {
	writeJSON(w, status, domain.Ok(status, data))
}

// writeError renders err in the envelope shape. data, when given, rides
// along so callers can see partial progress.
func writeError(w http.ResponseWriter, err error, data ...any) {
	status := statusFor(err)
	env := domain.Fail[any](status, err.Error(), nil)

	var verr *services.ValidationError
	var apiErr *domain.APIError
	switch {
	case errors.As(err, &verr):
		env.Message = "Validation failed"
		for _, field := range verr.Keys() {
			env.Errors = append(env.Errors, field+": "+verr.Fields[field])
		}
	case errors.As(err, &apiErr):
		env.Message = apiErr.Message
		env.Errors = apiErr.Errors
	}
	if len(data) > 0 {
		env.Data = data[0]
	}
	writeJSON(w, status, env)
}

func statusFor(err error) int {
	var verr *services.ValidationError
	var apiErr *domain.APIError

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPollID),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, services.ErrNoSelection),
		errors.Is(err, services.ErrNoMorePolls):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrPollNotStarted),
		errors.Is(err, domain.ErrPollEnded),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotCreator):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, debounce.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		if apiErr.Status == 0 {
			return http.StatusBadGateway
		}
		return apiErr.Status
	}
	return http.StatusInternalServerError
}
