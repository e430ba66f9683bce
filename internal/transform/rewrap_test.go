package transform

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRewrap_JoinsShortLines(t *testing.T) {
	input := "---The node\n---library.\n---\nlocal node = {}"
	assert.Equal(t, "---The node library.\n---\nlocal node = {}", Rewrap(input))
}

func TestRewrap_ShortLineKeepsSpacing(t *testing.T) {
	input := "--- `c`  and  `d`\nlocal node = {}"
	assert.Equal(t, input, Rewrap(input))
	assert.Equal(t, input, Rewrap(Rewrap(input)))
}

func TestRewrap_WrapsLongLines(t *testing.T) {
	word := "lorem"
	long := "---" + strings.TrimSpace(strings.Repeat(word+" ", 40))
	got := Rewrap(long + "\n---@param x string")

	lines := strings.Split(got, "\n")
	assert.Equal(t, "---@param x string", lines[len(lines)-1])
	for _, line := range lines[:len(lines)-1] {
		assert.True(t, strings.HasPrefix(line, "---"))
		assert.LessOrEqual(t, utf8.RuneCountInString(line)-3, RewrapWidth, line)
	}
	assert.Equal(t, strings.Repeat(word+" ", 40), strings.Join(trimPrefixes(lines[:len(lines)-1]), " ")+" ")
}

func TestRewrap_KeepsStructuredLines(t *testing.T) {
	input := strings.Join([]string{
		"---Intro",
		"---* item one",
		"---  continued item",
		"---1. first",
		"---|> alias",
		"---😱 [Types](x) incomplete or incorrect?",
		"---```lua",
		"---local a",
		"---local b",
		"---```",
		"---@return string",
	}, "\n")
	assert.Equal(t, input, Rewrap(input))
}

func TestRewrap_FencedBlockIsLiteral(t *testing.T) {
	input := "---```\n---a\n---b\n---```\n---c\n---d\n---"
	assert.Equal(t, "---```\n---a\n---b\n---```\n---c d\n---", Rewrap(input))
}

func TestRewrap_CodeLineFlushesUnchanged(t *testing.T) {
	input := "---a\n---b\nlocal x = 1"
	assert.Equal(t, input, Rewrap(input))
}

func TestRewrap_LongWordNotBroken(t *testing.T) {
	url := "---https://" + strings.Repeat("x", 100)
	assert.Equal(t, url+"\n---", Rewrap(url+"\n---"))
}

func TestRewrap_Empty(t *testing.T) {
	assert.Equal(t, "", Rewrap(""))
}

func trimPrefixes(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimPrefix(l, "---")
	}
	return out
}
