package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
)

// exitCodes maps each category to the process exit status of the manager
// binary. Unknown categories and unclassified errors exit with 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryConfig:     7,
	CategoryNetwork:    8,
	CategoryGit:        8,
	CategoryProcess:    9,
	CategoryInternal:   10,
	CategoryFileSystem: 11,
	CategoryLookup:     11,
}

// CLIErrorAdapter turns a failed command into a message on stderr and an
// exit status.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr, exit: os.Exit}
}

// ExitCodeFor returns 0 for nil.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	me, ok := As(err)
	if !ok {
		return 1
	}
	if code, known := exitCodes[me.Category]; known {
		return code
	}
	return 1
}

// FormatError renders err for the terminal. Usage mistakes print only the
// message; everything else is prefixed with its category.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	me, ok := As(err)
	switch {
	case !ok:
		return "Error: " + err.Error()
	case a.verbose:
		return me.Error()
	case me.Category == CategoryValidation:
		if reason, has := me.Context["reason"]; has {
			return fmt.Sprintf("%s: %v", me.Message, reason)
		}
		return me.Message
	case me.Category == CategoryConfig:
		return me.Message
	case me.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", me.Category, me.Message, me.Cause)
	default:
		return fmt.Sprintf("%s: %s", me.Category, me.Message)
	}
}

// HandleError prints err, logs the structured details of fatal failures and
// exits.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	me, classified := As(err)
	if a.verbose || !classified || me.Severity == SeverityFatal || me.Category == CategoryInternal {
		a.log(err, me)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) log(err error, me *ManagerError) {
	if me == nil {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	level := slog.LevelError
	if me.Severity == SeverityWarning {
		level = slog.LevelWarn
	}
	keys := make([]string, 0, len(me.Context))
	for k := range me.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := []slog.Attr{slog.String("category", string(me.Category))}
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, me.Context[k]))
	}
	a.logger.LogAttrs(context.Background(), level, me.Message, attrs...)
}
