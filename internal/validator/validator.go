// Package validator checks hardened extraction output against a rule set.
//
// Validation runs in two tiers. Structural rules (presence, types, enum
// membership) run first; any structural violation short-circuits the semantic
// tier so semantic rules never see malformed shapes. The full set of violated
// rule IDs is always returned, and identical input always produces identical
// violations.
package validator

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/jobpulse/internal/model"
)

var fold = cases.Fold()

// Markers that indicate the model echoed template scaffolding instead of
// extracting real content.
var placeholderMarkers = []string{
	"{{", "}}", "<insert", "lorem ipsum", "your text here", "job_description",
}

// Validate evaluates data against rules. On pass, the result carries a
// normalized copy of the data: strings trimmed and enum fields rewritten to
// their canonical spelling. Fields are never added or removed.
func Validate(data map[string]any, rules RuleSet) *model.ValidationResult {
	violations := newViolationSet()

	// Tier 1: structural.
	for _, f := range rules.RequiredFields {
		if v, ok := data[f]; !ok || v == nil {
			violations.add("missing_" + f)
		}
	}
	for _, f := range rules.StringFields {
		v, ok := data[f]
		if !ok || v == nil {
			continue
		}
		if _, isStr := v.(string); !isStr {
			violations.add("wrong_type_" + f)
		}
	}
	for _, f := range rules.ListFields {
		v, ok := data[f]
		if !ok || v == nil {
			continue
		}
		list, isList := v.([]any)
		if !isList {
			violations.add("wrong_type_" + f)
			continue
		}
		for _, el := range list {
			if _, isStr := el.(string); !isStr {
				violations.add("wrong_type_" + f)
				break
			}
		}
	}
	for _, f := range rules.IntFields {
		v, ok := data[f]
		if !ok || v == nil {
			continue
		}
		n, isNum := v.(float64)
		if !isNum || n != math.Trunc(n) {
			violations.add("wrong_type_" + f)
		}
	}
	for _, f := range sortedKeys(rules.EnumFields) {
		v, ok := data[f]
		if !ok || v == nil {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			violations.add("wrong_type_" + f)
			continue
		}
		if _, ok := matchEnum(s, rules.EnumFields[f]); !ok {
			violations.add("invalid_enum_" + f)
		}
	}

	if !violations.empty() {
		return &model.ValidationResult{
			Status:        model.ValidationFail,
			ViolatedRules: violations.sorted(),
		}
	}

	// Tier 2: semantic. Shapes are known good at this point.
	for _, f := range rules.RequiredFields {
		if isEmptyValue(data[f]) {
			violations.add("empty_" + f)
		}
	}
	for _, group := range rules.NonEmptyAnyOf {
		covered := false
		for _, f := range group {
			if v, ok := data[f]; ok && !isEmptyValue(v) {
				covered = true
				break
			}
		}
		if !covered {
			violations.add("low_coverage_" + strings.Join(group, "_"))
		}
	}
	for _, f := range rules.StringFields {
		if s, ok := data[f].(string); ok && containsPlaceholder(s) {
			violations.add("placeholder_text_" + f)
		}
	}
	for _, f := range rules.ListFields {
		list, _ := data[f].([]any)
		for _, el := range list {
			if s, ok := el.(string); ok && containsPlaceholder(s) {
				violations.add("placeholder_text_" + f)
				break
			}
		}
	}

	if !violations.empty() {
		return &model.ValidationResult{
			Status:        model.ValidationFail,
			ViolatedRules: violations.sorted(),
		}
	}

	return &model.ValidationResult{
		Status:     model.ValidationPass,
		Normalized: normalize(data, rules),
	}
}

// normalize deep-copies data, trimming string values and rewriting enum
// fields to canonical spelling.
func normalize(data map[string]any, rules RuleSet) map[string]any {
	out := cloneTrimmed(data).(map[string]any)
	for f, allowed := range rules.EnumFields {
		s, ok := out[f].(string)
		if !ok {
			continue
		}
		if canonical, ok := matchEnum(s, allowed); ok {
			out[f] = canonical
		}
	}
	return out
}

func cloneTrimmed(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneTrimmed(val)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, val := range t {
			l[i] = cloneTrimmed(val)
		}
		return l
	case string:
		return strings.TrimSpace(t)
	default:
		return v
	}
}

// matchEnum finds the canonical spelling for a value using Unicode case
// folding, so "full-time" and "FULL-TIME" both map to "Full-time".
func matchEnum(value string, allowed []string) (string, bool) {
	folded := fold.String(strings.TrimSpace(value))
	for _, a := range allowed {
		if fold.String(a) == folded {
			return a, true
		}
	}
	return "", false
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

func containsPlaceholder(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range placeholderMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

type violationSet struct {
	seen map[string]struct{}
}

func newViolationSet() *violationSet {
	return &violationSet{seen: make(map[string]struct{})}
}

func (v *violationSet) add(rule string) { v.seen[rule] = struct{}{} }

func (v *violationSet) empty() bool { return len(v.seen) == 0 }

func (v *violationSet) sorted() []string {
	rules := make([]string, 0, len(v.seen))
	for r := range v.seen {
		rules = append(rules, r)
	}
	sort.Strings(rules)
	return rules
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
