package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/farwmarth/liveedit/internal/journal"
	"github.com/farwmarth/liveedit/internal/linestore"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	offStyle    = cellStyle.Foreground(lipgloss.Color("244"))
)

func newListCmd(a *app) *cobra.Command {
	var search string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recording targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			entries := linestore.Filter(store.List(), search)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries")
				return nil
			}
			renderEntries(cmd.OutOrStdout(), entries)
			st := store.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "%d total, %d active, %d commented out\n", st.Total, st.Active, st.Commented)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive filter on target and note")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <target> [note...]",
		Short: "Append a recording target",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(args[0]) == "" {
				return fmt.Errorf("target is required")
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			entry, err := store.Add(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			a.record(cmd.Context(), journal.OpAdd, entry)
			fmt.Fprintf(cmd.OutOrStdout(), "added %d: %s\n", entry.Position, entry.Line())
			return nil
		},
	}
}

func newToggleCmd(a *app) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "toggle <position>",
		Short: "Enable a target, or comment it out with --off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			entry, err := store.Toggle(pos, off)
			if err != nil {
				return err
			}
			a.record(cmd.Context(), journal.OpToggle, entry)
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", entry.Position, entry.Line())
			return nil
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "comment the line out instead of enabling it")
	return cmd
}

func newToggleTargetCmd(a *app) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "toggle-target <target>",
		Short: "Enable the first line with this target, or comment it out with --off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			entry, err := store.ToggleTarget(args[0], off)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			a.record(cmd.Context(), journal.OpToggle, entry)
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", entry.Position, entry.Line())
			return nil
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "comment the line out instead of enabling it")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <position>",
		Aliases: []string{"rm", "delete"},
		Short:   "Delete a line from the entries file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			removed, err := store.RemoveEntry(pos)
			if err != nil {
				return err
			}
			a.record(cmd.Context(), journal.OpRemove, removed)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d: %s\n", pos, removed.Line())
			return nil
		},
	}
}

func newModifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "modify <position> <target> [note...]",
		Short: "Replace a line's target and note; the line ends up enabled",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(args[1]) == "" {
				return fmt.Errorf("target is required")
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			entry, err := store.Modify(pos, args[1], strings.Join(args[2:], " "))
			if err != nil {
				return err
			}
			a.record(cmd.Context(), journal.OpModify, entry)
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", entry.Position, entry.Line())
			return nil
		},
	}
}

func newRecordingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recordings",
		Short: "Print what the recorder is currently capturing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := a.openProxy().Fetch(cmd.Context())
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal(body, &v); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent changes from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JournalPath == "" {
				return fmt.Errorf("change journal is disabled: set LIVEEDIT_JOURNAL_PATH or --journal")
			}
			j, err := journal.Open(cmd.Context(), a.cfg.JournalPath, a.logger)
			if err != nil {
				return err
			}
			defer j.Close()

			changes, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(changes) == 0 {
				fmt.Fprintln(out, "No changes recorded")
				return nil
			}
			for _, c := range changes {
				state := "on"
				if c.Commented {
					state = "off"
				}
				fmt.Fprintf(out, "%s  %-6s  #%d  %s  (%s)\n",
					c.At.Local().Format(time.DateTime), c.Op, c.Position,
					linestore.Encode(c.Target, c.Note, false), state)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of changes to show")
	return cmd
}

// record journals a change made from the command line. A journal that
// cannot be opened only costs the history entry.
func (a *app) record(ctx context.Context, op string, e linestore.Entry) {
	if a.cfg.JournalPath == "" {
		return
	}
	j, err := journal.Open(ctx, a.cfg.JournalPath, a.logger)
	if err != nil {
		a.logger.Warn("journal unavailable", "path", a.cfg.JournalPath, "error", err)
		return
	}
	defer j.Close()

	remote := "cli"
	if u := os.Getenv("USER"); u != "" {
		remote = "cli:" + u
	}
	err = j.Record(ctx, journal.Change{
		Op:        op,
		Position:  e.Position,
		Target:    e.Target,
		Note:      e.Note,
		Commented: e.Commented,
		Remote:    remote,
	})
	if err != nil {
		a.logger.Warn("journal write failed", "op", op, "error", err)
	}
}

func renderEntries(w io.Writer, entries []linestore.Entry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		state := "on"
		if e.Commented {
			state = "off"
		}
		rows = append(rows, []string{strconv.Itoa(e.Position), state, e.Target, e.Note})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "STATE", "TARGET", "NOTE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row < len(entries) && entries[row].Commented:
				return offStyle
			default:
				return cellStyle
			}
		})
	fmt.Fprintln(w, t)
}

func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("position must be a number: %q", s)
	}
	return n, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
