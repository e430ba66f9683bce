// Package tools runs the external programs of the pipeline: the Lua
// formatter, the syntax highlighter used for previews, the documentation
// generators and the TeX engine that executes examples.
package tools

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
)

// Formatter formats Lua sources in place.
type Formatter interface {
	Format(ctx context.Context, path string) error
}

// Highlighter renders Lua code for terminal preview.
type Highlighter interface {
	Highlight(ctx context.Context, code string) (string, error)
}

// DocGenerator produces the HTML documentation site of a subproject.
type DocGenerator interface {
	Generate(ctx context.Context, src, out string, opts GenerateOptions) error
	Build(ctx context.Context, dir string) error
}

// GenerateOptions are passed to the documentation generator.
type GenerateOptions struct {
	SiteName    string
	TemplateDir string
}

// LuaRunner executes an example with a TeX engine.
type LuaRunner interface {
	Run(ctx context.Context, dir string, args []string) (Result, error)
}

// Result is the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// run executes name with args in dir. stdin may be empty.
func run(ctx context.Context, dir, stdin, name string, args ...string) (Result, error) {
	// #nosec G204 -- binaries come from the configuration
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	slog.Debug("Ran external command",
		logfields.Command(name+" "+strings.Join(args, " ")),
		logfields.Path(dir),
		logfields.Duration(time.Since(start)))

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result, err
	}
	return result, nil
}

// Stylua formats with stylua using the project configuration file.
type Stylua struct {
	Binary     string
	ConfigPath string
}

func (s Stylua) Format(ctx context.Context, path string) error {
	result, err := run(ctx, "", "", s.Binary, "--config-path", s.ConfigPath, path)
	if err != nil {
		return derrors.ProcessFailed(s.Binary, err).
			WithContext("path", path).
			WithContext("stderr", strings.TrimSpace(result.Stderr))
	}
	return nil
}

// Pygmentize highlights with `pygmentize -l lua`.
type Pygmentize struct {
	Binary string
}

func (p Pygmentize) Highlight(ctx context.Context, code string) (string, error) {
	result, err := run(ctx, "", code, p.Binary, "-l", "lua")
	if err != nil {
		return "", derrors.PreviewFailed(p.Binary, err)
	}
	return result.Stdout, nil
}

// Preview prints highlighted code to w. Highlighting is best effort; on
// failure the plain code is printed and a warning logged.
func Preview(ctx context.Context, h Highlighter, w io.Writer, code string) {
	highlighted, err := h.Highlight(ctx, code)
	if err != nil {
		slog.Warn("Preview highlighting failed", logfields.Error(err))
		highlighted = code
	}
	_, _ = io.WriteString(w, highlighted)
}

// SiteGenerator generates Markdown with emmylua_doc and builds it with
// mkdocs.
type SiteGenerator struct {
	EmmyLuaDoc string
	MkDocs     string
}

func (g SiteGenerator) Generate(ctx context.Context, src, out string, opts GenerateOptions) error {
	args := []string{src}
	if opts.TemplateDir != "" {
		args = append(args, "--override-template", opts.TemplateDir)
	}
	args = append(args, "--site-name", opts.SiteName, "--output", out)
	result, err := run(ctx, "", "", g.EmmyLuaDoc, args...)
	if err != nil {
		return derrors.ProcessFailed(g.EmmyLuaDoc, err).WithContext("stderr", strings.TrimSpace(result.Stderr))
	}
	return nil
}

func (g SiteGenerator) Build(ctx context.Context, dir string) error {
	result, err := run(ctx, dir, "", g.MkDocs, "build")
	if err != nil {
		return derrors.ProcessFailed(g.MkDocs, err).WithContext("stderr", strings.TrimSpace(result.Stderr))
	}
	return nil
}

// DefaultRunTimeout bounds the execution of a single example.
const DefaultRunTimeout = 30 * time.Second

// TeXRunner runs examples with a hard timeout. args[0] is the engine
// binary; LuaTeX replaces a plain "luatex" when set.
type TeXRunner struct {
	Timeout time.Duration
	LuaTeX  string
}

func (r TeXRunner) Run(ctx context.Context, dir string, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, derrors.ValidationFailed("args", "no engine to run")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	if args[0] == "luatex" && r.LuaTeX != "" {
		args = append([]string{r.LuaTeX}, args[1:]...)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := run(ctx, dir, "", args[0], args[1:]...)
	if ctx.Err() != nil {
		return result, derrors.ProcessFailed(args[0], ctx.Err()).WithContext("timeout", timeout.String())
	}
	if err != nil {
		return result, derrors.ProcessFailed(args[0], err).WithContext("exit_code", result.ExitCode)
	}
	return result, nil
}

// Noop implements every tool without side effects. Highlight returns its
// input and Run returns an empty result.
type Noop struct{}

func (Noop) Format(context.Context, string) error                            { return nil }
func (Noop) Highlight(_ context.Context, code string) (string, error)        { return code, nil }
func (Noop) Generate(context.Context, string, string, GenerateOptions) error { return nil }
func (Noop) Build(context.Context, string) error                             { return nil }
func (Noop) Run(context.Context, string, []string) (Result, error)           { return Result{}, nil }
