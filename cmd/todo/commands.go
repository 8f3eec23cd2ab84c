package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nexttodo/internal/alarm"
	"nexttodo/internal/task"
	"nexttodo/internal/ui"
)

var (
	addNote     string
	addPriority string
	addDue      string
	addCategory string

	listSearch   string
	listCategory string
	listOutput   string

	addCmd = &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAdd,
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List open tasks, soonest due first",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	doneCmd = &cobra.Command{
		Use:   "done [id]",
		Short: "Complete a task by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE:  runDone,
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Run alarms without the interactive list",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
)

func init() {
	addCmd.Flags().StringVarP(&addNote, "note", "n", "", "free-text note")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "medium", "high, medium or low")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", "due date, e.g. 2026-10-16T18:30")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "work", "work, personal or shopping")

	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive match on title or note")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "all", "all, work, personal or shopping")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "table, json or yaml")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	engine := a.newEngine()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var wg conc.WaitGroup
	wg.Go(func() {
		if err := engine.Run(ctx); err != nil {
			a.logger.Error("alarm engine stopped", "err", err)
		}
	})
	err = ui.Run(ctx, a.store, engine.Events(), a.cfg)
	cancel()
	wg.Wait()
	return err
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	prio, err := task.ParsePriority(addPriority)
	if err != nil {
		return err
	}
	cat, err := task.ParseCategory(addCategory)
	if err != nil {
		return err
	}
	t, ok, err := a.store.Append(cmd.Context(), task.NewTask{
		Text:     strings.Join(args, " "),
		Note:     addNote,
		Priority: prio,
		DueDate:  addDue,
		Category: cat,
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.ID)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := task.ParseFilterCategory(listCategory)
	if err != nil {
		return err
	}
	tasks := task.ActiveView(a.store.Snapshot(), listSearch, cat, a.store.Location())
	return writeTasks(cmd.OutOrStdout(), tasks, listOutput)
}

func writeTasks(w io.Writer, tasks []task.Task, format string) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(tasks)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPRIORITY\tCATEGORY\tDUE\tTITLE")
		for _, t := range tasks {
			due := strings.Replace(t.DueDate, "T", " ", 1)
			if due == "" {
				due = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, priorityColor(t.Priority), t.Category, due, t.Text)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func priorityColor(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return color.RedString(string(p))
	case task.PriorityLow:
		return color.HiBlackString(string(p))
	default:
		return color.YellowString(string(p))
	}
}

func runDone(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := findByPrefix(a.store.Snapshot(), args[0])
	if err != nil {
		return err
	}
	if _, err := a.store.MarkComplete(cmd.Context(), t.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "completed %q\n", t.Text)
	return nil
}

func findByPrefix(tasks []task.Task, prefix string) (task.Task, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return task.Task{}, errors.New("empty id")
	}
	var matches []task.Task
	for _, t := range tasks {
		if t.ID == prefix {
			return t, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("no open task with id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return task.Task{}, fmt.Errorf("id %q matches %d tasks", prefix, len(matches))
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	engine := a.newEngine()
	ctx := cmd.Context()

	var wg conc.WaitGroup
	wg.Go(func() {
		if err := engine.Run(ctx); err != nil {
			a.logger.Error("alarm engine stopped", "err", err)
		}
	})
	defer wg.Wait()

	a.logger.Info("watching for due tasks", "open", len(a.store.Snapshot()))
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-engine.Events():
			printBanner(out, ev)
		}
	}
}

func printBanner(w io.Writer, ev alarm.Event) {
	fmt.Fprintln(w, color.New(color.FgHiWhite, color.BgRed, color.Bold).Sprint(ev.Message()))
}
