package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleStats struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

func TestParseJSON_FencedObject(t *testing.T) {
	raw := "```json\n{\"score\": 0.8, \"label\": \"high\"}\n```"
	p := ParseJSON[sampleStats](raw)
	require.True(t, p.OK())
	require.Equal(t, 0.8, p.Value.Score)
	require.Equal(t, "high", p.Value.Label)
}

func TestParseJSON_ObjectInsideProse(t *testing.T) {
	p := ParseJSON[sampleStats]("Sure! Here it is: {\"score\": 0.2, \"label\": \"low\"} Hope this helps.")
	require.True(t, p.OK())
	require.Equal(t, "low", p.Value.Label)
}

func TestParseJSON_Array(t *testing.T) {
	p := ParseJSON[[]string](`["a", "b"]`)
	require.True(t, p.OK())
	require.Equal(t, []string{"a", "b"}, p.Value)
}

func TestParseJSON_UnparsedKeepsRaw(t *testing.T) {
	raw := "The score is roughly 0.5 and the label is medium."
	p := ParseJSON[sampleStats](raw)
	require.False(t, p.OK())
	require.Equal(t, KindUnparsed, p.Kind)
	require.Equal(t, raw, p.Raw)
}

func TestResolve_UsesExtractorOnlyWhenUnparsed(t *testing.T) {
	calls := 0
	extract := func(raw string) sampleStats {
		calls++
		return sampleStats{Label: "extracted"}
	}
	parsed := Resolve(ParseJSON[sampleStats](`{"label":"json"}`), extract)
	require.Equal(t, "json", parsed.Label)
	require.Equal(t, 0, calls)

	fallback := Resolve(ParseJSON[sampleStats]("no json here"), extract)
	require.Equal(t, "extracted", fallback.Label)
	require.Equal(t, 1, calls)
}

func TestPlainText_StripsMarkdown(t *testing.T) {
	md := "**Both bills** address `infrastructure`.\n\n- item one\n- item two"
	require.Equal(t, "Both bills address infrastructure. item one item two", PlainText(md))
}

func TestPlainText_JoinsSoftBreaks(t *testing.T) {
	require.Equal(t, "line one line two", PlainText("line one\nline two"))
}
