package commands

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/TeXLuaCATS/manager/internal/daemon"
	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
)

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	Every    string   `help:"Interval between runs, overrides schedule.every"`
	Cron     string   `help:"Cron expression, overrides schedule.cron"`
	Commands []string `help:"Commands to run in order, overrides schedule.commands" sep:","`
	Rewrap   bool     `help:"Rewrap the docstrings when formatting"`
	NoSync   bool     `name:"no-sync" help:"Do not commit and sync to the remote when distributing"`
}

func (c *ScheduleCmd) Run(g *Global, root *CLI) error {
	return withRuntime(root, func(rt *Runtime) error {
		plan := rt.Config.Schedule
		if c.Every != "" {
			plan.Every = c.Every
			plan.Cron = ""
		}
		if c.Cron != "" {
			plan.Cron = c.Cron
		}
		if len(c.Commands) > 0 {
			plan.Commands = c.Commands
		}

		task, err := sequence(ScheduledTasks(rt, c.Rewrap, !c.NoSync), plan.Commands)
		if err != nil {
			return err
		}

		scheduler, err := daemon.NewScheduler()
		if err != nil {
			return err
		}
		name := strings.Join(plan.Commands, "+")
		if plan.Cron != "" {
			_, err = scheduler.ScheduleCron(name, plan.Cron, task)
		} else {
			var interval time.Duration
			interval, err = scheduleInterval(plan.Every)
			if err == nil {
				_, err = scheduler.ScheduleEvery(name, interval, task)
			}
		}
		if err != nil {
			return err
		}

		ctx := g.context()
		scheduler.Start(ctx)
		slog.Info("Scheduler running", logfields.ScheduleName(name))
		<-ctx.Done()
		return scheduler.Stop(context.Background())
	})
}

// ScheduledTasks maps the command names that can run unattended to their
// tasks.
func ScheduledTasks(rt *Runtime, rewrap, sync bool) map[string]daemon.Task {
	each := func(command string, step Step) daemon.Task {
		return func(ctx context.Context) error { return rt.RunEach(ctx, command, step) }
	}
	return map[string]daemon.Task{
		"submodule":            each("submodule", syncFromRemote),
		"external-definitions": each("external-definitions", syncExternalDefinitions),
		"manuals":              each("manuals", downloadManuals),
		"format":               each("format", formatStep(rewrap)),
		"merge":                each("merge", merge),
		"dist": func(ctx context.Context) error {
			return distribute(ctx, rt, sync)
		},
		"docs":    each("docs", compileDoc),
		"package": each("package", packageLibrary),
	}
}

// sequence chains the named tasks. The first failure stops the chain.
func sequence(tasks map[string]daemon.Task, names []string) (daemon.Task, error) {
	if len(names) == 0 {
		return nil, derrors.ValidationFailed("schedule.commands", "no commands to run")
	}
	chain := make([]daemon.Task, 0, len(names))
	for _, name := range names {
		task, ok := tasks[name]
		if !ok {
			known := make([]string, 0, len(tasks))
			for k := range tasks {
				known = append(known, k)
			}
			slices.Sort(known)
			return nil, derrors.ValidationFailed("schedule.commands",
				"unknown command "+name+", expected one of "+strings.Join(known, ", "))
		}
		chain = append(chain, task)
	}
	return func(ctx context.Context) error {
		for _, task := range chain {
			if err := task(ctx); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func scheduleInterval(every string) (time.Duration, error) {
	d, err := time.ParseDuration(every)
	if err != nil {
		return 0, derrors.ValidationFailed("schedule.every", err.Error())
	}
	if d < time.Minute {
		return 0, derrors.ValidationFailed("schedule.every", "interval must be at least one minute")
	}
	return d, nil
}
