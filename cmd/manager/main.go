package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/TeXLuaCATS/manager/cmd/manager/commands"
	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("manager"),
		kong.Description("Manager for the TeXLuaCATS project."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := parser.Run(&commands.Global{Logger: slog.Default(), Ctx: ctx}, cli)
	if err != nil {
		stop()
		derrors.NewCLIErrorAdapter(cli.Debug, slog.Default()).HandleError(err)
	}
}
