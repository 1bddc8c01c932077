package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrNoMorePolls       = errors.New("no more polls to load")
	ErrLoadInProgress    = errors.New("polls are already loading")
	ErrInvalidTransition = errors.New("action not allowed in the current state")
	ErrNoSelection       = errors.New("no option selected")
	ErrSubmitInProgress  = errors.New("vote is already being submitted")
	ErrMissingTokens     = errors.New("callback is missing access or refresh token")
	ErrOptionFloor       = errors.New("a poll needs at least two options")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrWizardIncomplete  = errors.New("wizard has not reached the review step")
	ErrWizardComplete    = errors.New("wizard is already on the last step")
)

// ValidationError carries one message per offending field, keyed like
// "title", "ranges[0].end" or "options[1]".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := e.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Keys returns the offending fields in sorted order.
func (e *ValidationError) Keys() []string {
	keys := lo.Keys(e.Fields)
	sort.Strings(keys)
	return keys
}

func (e *ValidationError) Field(name string) (string, bool) {
	msg, ok := e.Fields[name]
	return msg, ok
}
