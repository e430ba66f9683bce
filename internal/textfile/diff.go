package textfile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorPurple = "\033[0;35m"
	colorEnd    = "\033[0m"
)

func debugEnabled() bool {
	return slog.Default().Enabled(context.Background(), slog.LevelDebug)
}

// WriteDiff prints a unified diff with one line of context. Removed lines
// are red, added lines green and hunk headers purple.
func WriteDiff(w io.Writer, name, a, b string) error {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: name,
		ToFile:   name,
		Context:  1,
	})
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if _, err := fmt.Fprintln(w, colorize(line)); err != nil {
			return err
		}
	}
	return nil
}

func colorize(line string) string {
	switch {
	case strings.HasPrefix(line, "-"):
		return colorRed + line + colorEnd
	case strings.HasPrefix(line, "+"):
		return colorGreen + line + colorEnd
	case strings.HasPrefix(line, "@@"):
		return colorPurple + line + colorEnd
	default:
		return line
	}
}
