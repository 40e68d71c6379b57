// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// pathMatcher holds compiled include/exclude rules for pack and extract selection.
type pathMatcher struct {
	matcher *pathrules.Matcher
}

// newPathMatcher compiles path rules. It returns nil (match everything) when no rules remain.
// An unset default action excludes unmatched paths when any include rule exists,
// and includes them otherwise.
func newPathMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*pathMatcher, error) {
	rules = normalizeRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	if opts.DefaultAction == pathrules.ActionUnknown {
		opts.DefaultAction = pathrules.ActionInclude
		for _, rule := range rules {
			if rule.Action == pathrules.ActionInclude {
				opts.DefaultAction = pathrules.ActionExclude
				break
			}
		}
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidRules, err)
	}

	return &pathMatcher{matcher: matcher}, nil
}

// normalizeRules normalizes rule patterns and drops empty patterns.
func normalizeRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether path is selected. A nil matcher selects everything.
func (m *pathMatcher) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := NormalizePath(path)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// matcherOptionsWithDefaults enables case-insensitive matching for zero options,
// mirroring the case-folding filename hash.
func matcherOptionsWithDefaults(opts pathrules.MatcherOptions) pathrules.MatcherOptions {
	if opts == (pathrules.MatcherOptions{}) {
		opts.CaseInsensitive = true
	}

	return opts
}

// IncludeRules builds include rules from raw patterns.
func IncludeRules(patterns ...string) []pathrules.Rule {
	rules := buildRules(patterns)
	for i := range rules {
		rules[i].Action = pathrules.ActionInclude
	}

	return rules
}

// ExcludeRules builds exclude rules from raw patterns.
func ExcludeRules(patterns ...string) []pathrules.Rule {
	rules := buildRules(patterns)
	for i := range rules {
		rules[i].Action = pathrules.ActionExclude
	}

	return rules
}

// buildRules builds action-less rules from patterns, skipping blank ones.
func buildRules(patterns []string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		rules = append(rules, pathrules.Rule{Pattern: pattern})
	}

	return rules
}
