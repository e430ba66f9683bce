package linkref

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Extract returns every commit-pinned link of the doc comments in a Lua
// source. Comment prefixes are removed before the prose is parsed as
// Markdown; code lines become plain paragraphs and are ignored.
func Extract(source string) []Reference {
	body := []byte(stripCommentPrefix(source))
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	refs := make([]Reference, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		link, ok := n.(*gmast.Link)
		if !ok {
			return gmast.WalkContinue, nil
		}
		ref, ok := ParseURL(string(link.Destination))
		if !ok {
			return gmast.WalkSkipChildren, nil
		}
		ref.Text = inlineText(link, body)
		ref.Caption = precedingText(link, body)
		refs = append(refs, ref)
		return gmast.WalkSkipChildren, nil
	})
	return refs
}

func stripCommentPrefix(source string) string {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "---") {
			lines[i] = line[3:]
		}
	}
	return strings.Join(lines, "\n")
}

func inlineText(n gmast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(source))
		case *gmast.CodeSpan:
			b.WriteString(inlineText(t, source))
		}
	}
	return b.String()
}

// precedingText returns the caption in front of a link, `Caption: [..](..)`.
func precedingText(n gmast.Node, source []byte) string {
	var parts []string
	for s := n.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		if t, ok := s.(*gmast.Text); ok {
			if t.SoftLineBreak() || t.HardLineBreak() {
				break
			}
			parts = append([]string{string(t.Segment.Value(source))}, parts...)
			continue
		}
		if _, ok := s.(*gmast.CodeSpan); ok {
			parts = append([]string{inlineText(s, source)}, parts...)
			continue
		}
		break
	}
	caption := strings.TrimSpace(strings.Join(parts, ""))
	return strings.TrimSpace(strings.TrimSuffix(caption, ":"))
}
