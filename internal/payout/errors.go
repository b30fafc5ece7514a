package payout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NoParticipant marks a violation that belongs to the call rather than to a
// single participant (winning side, leverage bound).
const NoParticipant = -1

// Violation describes one rejected input value
type Violation struct {
	Index int     // participant index, or NoParticipant
	Name  string  // participant name when available
	Field string  // one of the Field* constants
	Value float64 // offending numeric value, zero for non-numeric fields
	Err   error   // domain sentinel
}

// Path returns the location of the violation in request terms,
// e.g. "participants[2].stake" or "leverage_bound".
func (v Violation) Path() string {
	if v.Index == NoParticipant {
		return v.Field
	}
	return fmt.Sprintf("participants[%d].%s", v.Index, v.Field)
}

func (v Violation) Error() string {
	if v.Index == NoParticipant {
		return fmt.Sprintf("%s: %s", v.Err, v.Field)
	}
	if v.Name != "" {
		return fmt.Sprintf("%s: participant %d (%q) field %s", v.Err, v.Index, v.Name, v.Field)
	}
	return fmt.Sprintf("%s: participant %d field %s", v.Err, v.Index, v.Field)
}

func (v Violation) Unwrap() error {
	return v.Err
}

// Detail is the violation message with the rejected value appended for
// numeric fields, e.g. "invalid stake (got -1)".
func (v Violation) Detail() string {
	switch v.Field {
	case FieldStake, FieldConfidence, FieldLeverageBound, FieldParticipants:
		return fmt.Sprintf("%s (got %s)", v.Err, strconv.FormatFloat(v.Value, 'g', -1, 64))
	default:
		return v.Err.Error()
	}
}

// ValidationError rejects a whole computation. No partial results are
// produced when it is returned.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes every violation so errors.Is matches any of the sentinels
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		errs[i] = v
	}
	return errs
}

// Fields maps violation paths to messages, for API responses
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		fields[v.Path()] = v.Err.Error()
	}
	return fields
}

// AsValidationError extracts a *ValidationError from err
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
