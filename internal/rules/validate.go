package rules

import (
	"fmt"

	"github.com/toozej/curator/internal/errs"
	"github.com/toozej/curator/internal/types"
)

// ValidateRules checks that rules is internally consistent. All violations are
// reported together in one RuleViolation.
func (e *Engine) ValidateRules(rules types.Rules) error {
	var (
		violations []string
		items      []any
		firstRule  string
	)
	record := func(rule, msg string, item any) {
		if firstRule == "" {
			firstRule = rule
		}
		violations = append(violations, msg)
		items = append(items, item)
	}

	if rules.MaxTracks != nil && *rules.MaxTracks <= 0 {
		record("maxTracks", fmt.Sprintf("maxTracks must be greater than 0, got %d", *rules.MaxTracks), *rules.MaxTracks)
	}
	if rules.MinPopularity != nil && (*rules.MinPopularity < 0 || *rules.MinPopularity > 100) {
		record("minPopularity", fmt.Sprintf("minPopularity must be between 0 and 100, got %d", *rules.MinPopularity), *rules.MinPopularity)
	}

	seen := make(map[types.DedupeKey]struct{}, len(rules.DedupeBy))
	for _, key := range rules.DedupeBy {
		if !key.Valid() {
			record("dedupeBy", fmt.Sprintf("unknown dedupe key %q", key), string(key))
			continue
		}
		if _, dup := seen[key]; dup {
			record("dedupeBy", fmt.Sprintf("duplicate dedupe key %q", key), string(key))
		}
		seen[key] = struct{}{}
	}

	if len(violations) == 0 {
		return nil
	}
	return errs.RuleViolation(firstRule, items, violations...)
}
