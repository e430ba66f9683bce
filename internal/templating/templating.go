// Package templating renders the `{{ name }}` and `{{ name(args) }}`
// expressions embedded in Lua doc comments.
//
// Only blocks whose name is bound in the Context are evaluated. Everything
// else, such as nested Lua table constructors, is copied literally.
package templating

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

// Func is a template function. Arguments are strings or ints.
type Func func(args ...any) (string, error)

// Context binds names to string values or Func values.
type Context map[string]any

var expression = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?:\(([^)]*)\))?\s*\}\}`)

// Render evaluates all known expressions of content.
func Render(content string, ctx Context) (string, error) {
	matches := expression.FindAllStringSubmatchIndex(content, -1)
	if matches == nil {
		return content, nil
	}

	var b strings.Builder
	last := 0
	for _, loc := range matches {
		b.WriteString(content[last:loc[0]])
		last = loc[1]

		block := content[loc[0]:loc[1]]
		name := content[loc[2]:loc[3]]
		value, ok := ctx[name]
		if !ok {
			slog.Debug("Leaving unknown template expression", slog.String("expression", block))
			b.WriteString(block)
			continue
		}

		hasCall := loc[4] >= 0
		var rawArgs string
		if hasCall {
			rawArgs = content[loc[4]:loc[5]]
		}

		out, err := evaluate(name, value, hasCall, rawArgs)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	b.WriteString(content[last:])
	return b.String(), nil
}

func evaluate(name string, value any, hasCall bool, rawArgs string) (string, error) {
	switch v := value.(type) {
	case string:
		if hasCall {
			return "", derrors.TemplateFailed(name, fmt.Errorf("%s is not callable", name))
		}
		return v, nil
	case Func:
		args, err := parseArgs(rawArgs)
		if err != nil {
			return "", derrors.TemplateFailed(name, err)
		}
		return v(args...)
	default:
		return "", derrors.TemplateFailed(name, fmt.Errorf("unsupported value type %T", value))
	}
}

// parseArgs splits `'a', "b", 3` into string and int values.
func parseArgs(raw string) ([]any, error) {
	var args []any
	s := strings.TrimSpace(raw)
	for s != "" {
		var (
			arg  any
			rest string
		)
		switch s[0] {
		case '\'', '"':
			end := strings.IndexByte(s[1:], s[0])
			if end < 0 {
				return nil, fmt.Errorf("unterminated string in %q", raw)
			}
			arg = s[1 : end+1]
			rest = s[end+2:]
		default:
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			token := strings.TrimSpace(s[:end])
			n, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("invalid argument %q", token)
			}
			arg = n
			rest = s[end:]
		}
		args = append(args, arg)

		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}
		if rest[0] != ',' {
			return nil, fmt.Errorf("expected comma in %q", raw)
		}
		s = strings.TrimSpace(rest[1:])
	}
	return args, nil
}
