package services

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const MinRollID = 1901001

type detailsStep struct {
	Title       string    `json:"title" validate:"min=3,max=255"`
	Description string    `json:"description" validate:"omitempty,min=3,max=1024"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Now         time.Time `json:"-" validate:"-"`
}

type rangesStep struct {
	Ranges []RangeDraft `json:"ranges" validate:"min=1,dive"`
}

type optionsStep struct {
	Options []string `json:"options" validate:"min=2,dive,required"`
}

// messages maps a field (indexes stripped) and the failed rule to the text
// shown next to the input.
var messages = map[string]map[string]string{
	"title": {
		"min": "Title is too short",
		"max": "Title is too long",
	},
	"description": {
		"min": "Description is too short",
		"max": "Description is too long",
	},
	"start_time": {
		"required": "Start time is required",
		"recent":   "Start date must be within the last hour",
	},
	"end_time": {
		"required": "End time is required",
		"gtfield":  "End Time must be greater than Start Time",
		"future":   "End date must be in the future",
	},
	"ranges": {
		"min": "At least one voter range is required",
	},
	"start": {
		"min": "Must be 1901001 or above",
	},
	"end": {
		"min":      "Must be 1901001 or above",
		"gtefield": "End ID must be greater than or equal Start ID",
	},
	"options": {
		"min":      "At least 2 options are required",
		"required": "Option is too short",
	},
}

func newDraftValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(validateWindow, detailsStep{})
	v.RegisterStructValidation(validateRange, RangeDraft{})
	return v
}

// validateWindow holds the rules that depend on the current time.
func validateWindow(sl validator.StructLevel) {
	step := sl.Current().Interface().(detailsStep)

	if !step.StartTime.IsZero() && step.StartTime.Before(step.Now.Add(-time.Hour)) {
		sl.ReportError(step.StartTime, "start_time", "StartTime", "recent", "")
	}
	if !step.EndTime.IsZero() && step.EndTime.Before(step.Now) {
		sl.ReportError(step.EndTime, "end_time", "EndTime", "future", "")
	}
}

// validateRange checks one voter range. The draft type carries no tags, so
// the rules live here.
func validateRange(sl validator.StructLevel) {
	r := sl.Current().Interface().(RangeDraft)

	if r.Start < MinRollID {
		sl.ReportError(r.Start, "start", "Start", "min", "")
	}
	if r.End < MinRollID {
		sl.ReportError(r.End, "end", "End", "min", "")
	} else if r.End < r.Start {
		sl.ReportError(r.End, "end", "End", "gtefield", "Start")
	}
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		key := fieldKey(fe.Namespace())
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = message(key, fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

// fieldKey drops the step struct name: "optionsStep.options[1]" becomes
// "options[1]".
func fieldKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(key, tag string) string {
	leaf := key
	if i := strings.LastIndex(leaf, "."); i >= 0 {
		leaf = leaf[i+1:]
	}
	if i := strings.Index(leaf, "["); i >= 0 {
		leaf = leaf[:i]
	}

	if msg, ok := messages[leaf][tag]; ok {
		return msg
	}
	return "Invalid value"
}
