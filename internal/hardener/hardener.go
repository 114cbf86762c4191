// Package hardener recovers JSON objects from unreliable LLM output.
//
// Raw text is parsed as-is first; on failure an ordered pipeline of repair
// techniques is applied, re-parsing after each one. The techniques that were
// applied are recorded so downstream traces can show how the output was
// salvaged.
package hardener

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jobpulse/internal/model"
)

// Repair technique names, in pipeline order.
const (
	StepStripFences        = "strip_fences"
	StepJSONishTail        = "jsonish_tail"
	StepBracketRepair      = "bracket_repair"
	StepBalancedTruncation = "balanced_truncation"
	StepBraceScan          = "brace_scan"
)

// ErrMalformedOutput is returned when no repair technique recovers a JSON
// object. The HardenedOutput accompanying it still carries the repair trace.
var ErrMalformedOutput = eris.New("hardener: malformed output")

type step struct {
	name  string
	apply func(string) (string, bool)
}

// Steps 1-4 are cumulative text transforms. The brace scan runs last against
// the original text because earlier transforms can discard a parseable span.
var pipeline = []step{
	{StepStripFences, stripFences},
	{StepJSONishTail, jsonishTail},
	{StepBracketRepair, bracketRepair},
	{StepBalancedTruncation, balancedTruncation},
}

// Harden parses text as a single JSON object, repairing it if necessary.
// It never panics on arbitrary input. On failure the returned HardenedOutput
// has a nil Parsed map and the error is ErrMalformedOutput.
func Harden(text string) (*model.HardenedOutput, error) {
	out := &model.HardenedOutput{
		OriginalRawOutput:  text,
		RepairStepsApplied: []string{},
	}

	if obj, ok := parseObject(text); ok {
		out.Parsed = obj
		return out, nil
	}

	work := text
	for _, s := range pipeline {
		repaired, applied := s.apply(work)
		if !applied {
			continue
		}
		work = repaired
		out.RepairStepsApplied = append(out.RepairStepsApplied, s.name)
		if obj, ok := parseObject(work); ok {
			out.Parsed = obj
			return out, nil
		}
	}

	if spans := braceSpans(text); len(spans) > 0 {
		out.RepairStepsApplied = append(out.RepairStepsApplied, StepBraceScan)
		for i := len(spans) - 1; i >= 0; i-- {
			if obj, ok := parseObject(spans[i]); ok {
				out.Parsed = obj
				return out, nil
			}
		}
	}

	return out, ErrMalformedOutput
}

func parseObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// stripFences removes a markdown code fence (with optional language tag)
// wrapping the output.
func stripFences(s string) (string, bool) {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s, false
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	} else {
		// Single-line fence: ```{...}```
		t = strings.TrimSuffix(t, "```")
		return strings.TrimSpace(t), true
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t), true
}

// jsonishTail drops leading prose before the first structural character.
func jsonishTail(s string) (string, bool) {
	i := strings.IndexAny(s, "{[")
	if i <= 0 {
		return s, false
	}
	return s[i:], true
}

// bracketRepair fixes the two single-character imbalances: trailing content
// (including stray closers) after a fully balanced structure is trimmed, and
// exactly one missing closer at the end of otherwise complete output is
// appended. Deeper truncation is left to balancedTruncation.
func bracketRepair(s string) (string, bool) {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	if trimmed == "" {
		return s, false
	}

	var stack []byte
	inString, escaped, started := false, false, false
	lastBalanced := -1

	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
			started = true
		case '}', ']':
			if len(stack) > 0 && closerFor(stack[len(stack)-1]) == c {
				stack = stack[:len(stack)-1]
				if started && len(stack) == 0 {
					lastBalanced = i + 1
				}
			}
		}
	}

	if lastBalanced > 0 && lastBalanced < len(trimmed) {
		return trimmed[:lastBalanced], true
	}
	if len(stack) == 1 && !inString {
		last := trimmed[len(trimmed)-1]
		if last != ',' && last != ':' {
			return trimmed + string(closerFor(stack[0])), true
		}
	}
	return s, false
}

// balancedTruncation recovers from output cut off mid-structure by trimming
// back to the last complete top-level member and closing the root. Partial
// trailing members and any nested structure left open are dropped.
func balancedTruncation(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s, false
	}
	opener := s[start]

	depth := 0
	inString, escaped, afterColon := false, false, false
	lastComplete := -1

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
				if depth == 1 && (afterColon || opener == '[') {
					lastComplete = i + 1
				}
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 1 {
				lastComplete = i + 1
			}
			if depth <= 0 {
				// Root closed; this is not a truncation problem.
				return s, false
			}
		case ':':
			if depth == 1 {
				afterColon = true
			}
		case ',':
			if depth == 1 {
				afterColon = false
				lastComplete = i
			}
		}
	}

	if lastComplete <= start {
		return s, false
	}
	candidate := strings.TrimRight(s[start:lastComplete], ", \t\r\n")
	return candidate + string(closerFor(opener)), true
}

// braceSpans collects every outermost {...} span in the text, tracking string
// state only inside a span so prose quotes cannot derail the scan.
func braceSpans(s string) []string {
	var spans []string
	depth := 0
	inString, escaped := false, false
	start := -1

	for i := 0; i < len(s); i++ {
		c := s[i]
		if depth > 0 {
			if inString {
				if escaped {
					escaped = false
				} else if c == '\\' {
					escaped = true
				} else if c == '"' {
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					spans = append(spans, s[start:i+1])
				}
			}
			continue
		}
		if c == '{' {
			depth = 1
			start = i
			inString = false
			escaped = false
		}
	}
	return spans
}

func closerFor(opener byte) byte {
	if opener == '[' {
		return ']'
	}
	return '}'
}
