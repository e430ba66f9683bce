package transform

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/go-wordwrap"
)

// RewrapWidth is the maximum line width of rewrapped comment prose,
// not counting the `---` prefix.
const RewrapWidth = 77

var (
	enumerationLine  = regexp.MustCompile(`^---\d+\. `)
	continuationLine = regexp.MustCompile(`^---\s\s*\w`)
)

// Rewrap reflows the prose of `---` doc comments. Annotations, list items,
// indented lines, fenced code blocks and the contribution banner keep
// their line breaks.
func Rewrap(content string) string {
	if content == "" {
		return ""
	}

	var (
		lines     []string
		paragraph []string
		fenced    bool
	)

	flushRewrapped := func() {
		if len(paragraph) == 0 {
			return
		}
		// A single line that already fits keeps its exact spacing.
		if len(paragraph) == 1 && utf8.RuneCountInString(paragraph[0])-3 <= RewrapWidth {
			lines = append(lines, paragraph[0])
			paragraph = paragraph[:0]
			return
		}
		prose := make([]string, len(paragraph))
		for i, line := range paragraph {
			prose[i] = line[3:]
		}
		for _, wrapped := range wrapWords(strings.Join(prose, " "), RewrapWidth) {
			lines = append(lines, "---"+wrapped)
		}
		paragraph = paragraph[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "---") {
			lines = append(lines, paragraph...)
			paragraph = paragraph[:0]
			lines = append(lines, line)
			continue
		}

		isFence := strings.HasPrefix(line, "---```")
		if isFence {
			fenced = !fenced
		}

		if isFence || fenced || keepLineBreak(line) {
			flushRewrapped()
			lines = append(lines, line)
			continue
		}
		paragraph = append(paragraph, line)
	}
	lines = append(lines, paragraph...)

	return strings.Join(lines, "\n")
}

func keepLineBreak(line string) bool {
	return line == "---" ||
		strings.HasPrefix(line, "---@") ||
		strings.HasPrefix(line, "---|") ||
		strings.HasPrefix(line, "---😱 [Types]") ||
		strings.HasPrefix(line, "---* ") ||
		enumerationLine.MatchString(line) ||
		continuationLine.MatchString(line)
}

// wrapWords fills lines greedily up to width runes. Words longer than
// width are never split.
func wrapWords(text string, width int) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return []string{""}
	}
	return strings.Split(wordwrap.WrapString(normalized, uint(width)), "\n")
}
