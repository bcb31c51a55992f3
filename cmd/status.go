package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	statusadapter "github.com/bnema/moonbix-cli/internal/adapters/render/status"
	"github.com/bnema/moonbix-cli/internal/application"
	"github.com/bnema/moonbix-cli/internal/logging"
	"github.com/spf13/cobra"
)

type snapshotJSON struct {
	Name             string     `json:"name"`
	Balance          float64    `json:"balance"`
	TicketsAvailable int        `json:"tickets_available"`
	RefreshAt        *time.Time `json:"refresh_at,omitempty"`
	RefreshMessage   string     `json:"refresh_message,omitempty"`
	CapturedAt       *time.Time `json:"captured_at,omitempty"`
	Error            string     `json:"error,omitempty"`
}

func newStatusCmd(app *app) *cobra.Command {
	var (
		accounts []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show balance, tickets and refresh time for each account",
		Long:  "status logs every account in and reads its profile once. No tasks or games are played.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := app.fleetEntries(cmd.Context(), accounts)
			if err != nil {
				return err
			}

			service := application.NewSnapshotService(app.transportFor, app.clock, logging.Discard())

			if asJSON {
				return writeSnapshotsJSON(cmd.OutOrStdout(), service.Collect(cmd.Context(), entries))
			}

			snapshots, err := collectWithSpinner(cmd.Context(), cmd.ErrOrStderr(), service, entries)
			if err != nil {
				return err
			}

			rendered, err := app.statusRenderer(snapshots, statusadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringArrayVar(&accounts, "account", nil, "Only show the named account (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeSnapshotsJSON(w io.Writer, snapshots []application.AccountSnapshot) error {
	out := make([]snapshotJSON, 0, len(snapshots))
	for _, snapshot := range snapshots {
		item := snapshotJSON{Name: string(snapshot.Name)}
		if snapshot.Err != nil {
			item.Error = snapshot.Err.Error()
			out = append(out, item)
			continue
		}

		item.Balance = snapshot.Profile.Balance
		item.TicketsAvailable = snapshot.Profile.TicketsAvailable
		item.RefreshMessage = snapshot.Profile.RefreshMessage
		if !snapshot.Profile.RefreshAt.IsZero() {
			refreshAt := snapshot.Profile.RefreshAt
			item.RefreshAt = &refreshAt
		}
		if !snapshot.CapturedAt.IsZero() {
			capturedAt := snapshot.CapturedAt
			item.CapturedAt = &capturedAt
		}
		out = append(out, item)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
