// Package errs defines the error kinds raised by the curation engine.
//
// Every engine error carries a machine-readable code and structured metadata in
// addition to its message. Individual violations are joined with "; ". Match a kind
// with errors.Is against the sentinel values, or extract details with errors.As.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an engine error.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindRule       Kind = "RuleViolation"
	KindPlanning   Kind = "PlanningError"
	KindConstraint Kind = "ConstraintError"
	KindSelection  Kind = "SelectionError"
)

// Machine-readable codes.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeRule       = "RULE_VIOLATION"
	CodePlanning   = "PLANNING_ERROR"
	CodeConstraint = "CONSTRAINT_ERROR"
	CodeSelection  = "SELECTION_ERROR"
	CodeAggregate  = "AGGREGATE_ERROR"
)

// Sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation, Code: CodeValidation}
	ErrRule       = &Error{Kind: KindRule, Code: CodeRule}
	ErrPlanning   = &Error{Kind: KindPlanning, Code: CodePlanning}
	ErrConstraint = &Error{Kind: KindConstraint, Code: CodeConstraint}
	ErrSelection  = &Error{Kind: KindSelection, Code: CodeSelection}
)

// Error is the concrete type behind every engine error.
type Error struct {
	Kind       Kind           `json:"kind"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Violations []string       `json:"violations,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so errors.Is(err, errs.ErrValidation) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// WithMeta returns e with key set in its metadata.
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

func newError(kind Kind, code string, violations []string) *Error {
	return &Error{
		Kind:       kind,
		Code:       code,
		Message:    strings.Join(violations, "; "),
		Violations: violations,
		Meta:       map[string]any{"violation_count": len(violations)},
	}
}

// Validation reports malformed or out-of-range input.
func Validation(violations ...string) *Error {
	return newError(KindValidation, CodeValidation, violations)
}

// RuleViolation reports an internally inconsistent rule set. rule names the rule at fault.
func RuleViolation(rule string, items []any, violations ...string) *Error {
	err := newError(KindRule, CodeRule, violations)
	err.Meta["rule"] = rule
	if len(items) > 0 {
		err.Meta["items"] = items
	}
	return err
}

// Planning reports a built plan that fails a post-hoc invariant.
func Planning(violations ...string) *Error {
	return newError(KindPlanning, CodePlanning, violations)
}

// Constraint reports a constraint-specific failure.
func Constraint(violations ...string) *Error {
	return newError(KindConstraint, CodeConstraint, violations)
}

// Selection reports a selection-specific failure.
func Selection(violations ...string) *Error {
	return newError(KindSelection, CodeSelection, violations)
}

// AggregateError bundles several errors for batch-style callers.
type AggregateError struct {
	Errors []error
}

// Aggregate returns nil for no errors, the error itself for one, and an AggregateError otherwise.
func Aggregate(errs ...error) error {
	kept := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &AggregateError{Errors: kept}
}

func (a *AggregateError) Error() string {
	msgs := make([]string, len(a.Errors))
	for i, err := range a.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(a.Errors), strings.Join(msgs, "; "))
}

// Code returns the aggregate code.
func (a *AggregateError) Code() string { return CodeAggregate }

func (a *AggregateError) Unwrap() []error { return a.Errors }

// CodeOf returns the machine-readable code of err, or "" for foreign errors.
func CodeOf(err error) string {
	var agg *AggregateError
	if errors.As(err, &agg) {
		return CodeAggregate
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
