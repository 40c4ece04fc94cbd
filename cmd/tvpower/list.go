package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dokzlo13/tvpower/internal/db"
	"github.com/dokzlo13/tvpower/internal/ledger"
	"github.com/dokzlo13/tvpower/internal/outputs"
)

func newListOutputsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-outputs",
		Short: "List video outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setColors(os.Stdout)
			all, err := outputs.NewEnumerator(cfg.Outputs.SysfsRoot).All()
			if err != nil {
				return err
			}
			writeOutputs(os.Stdout, all)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent power transitions recorded by the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.Database.IsEnabled() {
				return errors.New("transition history is disabled (database.enabled)")
			}
			setColors(os.Stdout)

			database, err := db.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.Close()

			entries, err := ledger.New(database.DB).Recent(limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			writeHistory(os.Stdout, entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of events to show")
	return cmd
}

func setColors(f *os.File) {
	if colorTerminal(f) {
		text.EnableColors()
	} else {
		text.DisableColors()
	}
}

func writeOutputs(w io.Writer, all []outputs.Output) {
	for _, o := range all {
		fmt.Fprintf(w, "%s %s\n", o.Name, statusColor(o.Status).Sprint(o.StatusString()))
	}
}

func statusColor(s outputs.Status) text.Colors {
	switch s {
	case outputs.StatusConnected:
		return text.Colors{text.FgGreen}
	case outputs.StatusDisconnected:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgYellow}
	}
}

func writeHistory(w io.Writer, entries []*ledger.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No power transitions recorded")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"TIME", "TRANSITION", "EVENT", "POWER", "ATTEMPT", "ERROR"})

	for _, e := range entries {
		power := "off"
		if e.Power {
			power = "on"
		}
		attempt := ""
		if e.Attempt > 0 {
			attempt = strconv.Itoa(e.Attempt)
		}
		errText, _ := e.Payload["error"].(string)

		t.AppendRow(table.Row{
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			shortID(e.TransitionID),
			eventColor(e.EventType).Sprint(string(e.EventType)),
			power,
			attempt,
			errText,
		})
	}
	t.Render()
}

func eventColor(t ledger.EventType) text.Colors {
	switch t {
	case ledger.EventConverged:
		return text.Colors{text.FgGreen}
	case ledger.EventAttemptFailed:
		return text.Colors{text.FgRed}
	case ledger.EventPreempted:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
