package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/eventstore"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of runs to show" default:"20"`
	JSON  bool `name:"json" help:"Print the runs as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Events.Database == "" {
		return derrors.ConfigInvalid(root.Config, fmt.Errorf("events.database is not set"))
	}
	store, err := eventstore.NewSQLiteStore(cfg.Layout().Resolve(cfg.Events.Database))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	projection := eventstore.NewRunHistoryProjection(store, h.Limit)
	if err := projection.Rebuild(g.context()); err != nil {
		return err
	}
	return PrintHistory(os.Stdout, projection.History(), h.JSON)
}

// PrintHistory writes runs as an aligned table or as a JSON array.
func PrintHistory(w io.Writer, runs []eventstore.RunSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tCOMMAND\tSUBPROJECTS\tSTATUS\tDURATION\tSTAGES\tERROR")
	for _, run := range runs {
		errText := run.ErrorMessage
		if run.FailedStage != "" {
			errText = run.FailedStage + ": " + errText
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.Command,
			strings.Join(run.Subprojects, ","),
			run.Status,
			run.Duration.Round(time.Millisecond),
			run.Stages,
			errText,
		)
	}
	return tw.Flush()
}
