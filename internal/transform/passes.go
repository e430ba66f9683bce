package transform

import (
	"regexp"
	"strings"
)

// NavigationTableHelp is the comment block that introduces the `_N` table.
const NavigationTableHelp = "-- The `_N` table makes it easier to navigate through the type definitions with\n" +
	"-- the help of the outline:\n" +
	"-- https://github.com/TeXLuaCATS/meta?tab=readme-ov-file#navigation-table-_n"

var (
	duplicateEmptyLines = regexp.MustCompile(`\n\n+`)
	returnStatement     = regexp.MustCompile(`(?m)^return .+\n?`)
	localEmptyTable     = regexp.MustCompile(`(?m)^local ([a-z_][a-z_0-9]*) ?= ?\{ ?\}`)
	doubleDashComment   = regexp.MustCompile(`^(--[^-].*|--)$`)
	navigationLine      = regexp.MustCompile(`(?m)^_N.*(\n|$)`)
	metaAnnotation      = regexp.MustCompile(`(?m)^---@meta\b.*(\n|$)`)

	docstringStart        = regexp.MustCompile(`\n\n---([^\n])`)
	duplicateEmptyComment = regexp.MustCompile(`\n---(\n---)+\n`)
)

// RemoveDuplicateEmptyLines allows at most one empty line in a row.
func RemoveDuplicateEmptyLines(content string) string {
	return duplicateEmptyLines.ReplaceAllString(content, "\n\n")
}

// RemoveReturnStatement deletes every line starting with `return `.
func RemoveReturnStatement(content string) string {
	return returnStatement.ReplaceAllString(content, "")
}

// ConvertLocalToGlobalTable rewrites the first `local name = {}` into
// `name = {}`.
func ConvertLocalToGlobalTable(content string) string {
	loc := localEmptyTable.FindStringSubmatchIndex(content)
	if loc == nil {
		return content
	}
	name := content[loc[2]:loc[3]]
	return content[:loc[0]] + name + " = {}" + content[loc[1]:]
}

// RemoveDoubleDashComments drops `--` comment lines. Doc comments (`---`)
// are kept.
func RemoveDoubleDashComments(content string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !doubleDashComment.MatchString(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// RemoveNavigationTable removes the `_N` table and its help comment.
func RemoveNavigationTable(content string) string {
	content = strings.ReplaceAll(content, NavigationTableHelp+"\n", "")
	// Trimmed first so an indented `_N` line on top is removed as well.
	content = navigationLine.ReplaceAllString(strings.TrimSpace(content), "")
	content = RemoveDuplicateEmptyLines(content)
	return strings.TrimSpace(content) + "\n"
}

// RemoveMetaAnnotation deletes `---@meta` lines, with or without a name.
func RemoveMetaAnnotation(content string) string {
	return metaAnnotation.ReplaceAllString(content, "")
}

// cleanDocstringsMaxRounds bounds the fixpoint iteration of CleanDocstrings.
const cleanDocstringsMaxRounds = 8

// CleanDocstrings starts every docstring with an empty comment line,
// collapses runs of empty comment lines and allows one empty line in a row.
func CleanDocstrings(content string) string {
	for range cleanDocstringsMaxRounds {
		next := cleanDocstringsOnce(content)
		if next == content {
			break
		}
		content = next
	}
	return content
}

func cleanDocstringsOnce(content string) string {
	content = docstringStart.ReplaceAllString(content, "\n\n---\n---${1}")
	content = duplicateEmptyComment.ReplaceAllString(content, "\n---\n")
	content = strings.ReplaceAll(content, "\n\n---\n\n", "\n\n")
	return RemoveDuplicateEmptyLines(content)
}
