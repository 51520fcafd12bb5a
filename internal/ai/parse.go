package ai

import (
	"encoding/json"
	"strings"
)

type ParseKind int

const (
	KindUnparsed ParseKind = iota
	KindParsed
)

// Parsed is the outcome of decoding a model response: either a typed value or the raw text.
type Parsed[T any] struct {
	Kind  ParseKind
	Value T
	Raw   string
}

func (p Parsed[T]) OK() bool {
	return p.Kind == KindParsed
}

// ParseJSON decodes the first JSON object or array found in a model response,
// tolerating markdown code fences and surrounding prose.
func ParseJSON[T any](raw string) Parsed[T] {
	out := Parsed[T]{Kind: KindUnparsed, Raw: raw}
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	clean = outermostJSON(clean)
	if clean == "" {
		return out
	}
	var value T
	if err := json.Unmarshal([]byte(clean), &value); err != nil {
		return out
	}
	out.Kind = KindParsed
	out.Value = value
	return out
}

// Resolve returns the parsed value, or runs the extraction fallback over the raw text.
func Resolve[T any](p Parsed[T], extract func(raw string) T) T {
	if p.OK() {
		return p.Value
	}
	return extract(p.Raw)
}

func outermostJSON(s string) string {
	start := strings.Index(s, "{")
	closer := "}"
	if arr := strings.Index(s, "["); arr >= 0 && (start < 0 || arr < start) {
		start = arr
		closer = "]"
	}
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
