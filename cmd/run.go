package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/moonbix-cli/internal/application"
	"github.com/bnema/moonbix-cli/internal/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRunCmd(app *app) *cobra.Command {
	var (
		once     bool
		accounts []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run task and game automation for every account",
		Long:  "run starts one independent automation loop per account. Each loop logs in, completes check-in tasks, plays every ticket, then sleeps until tickets refresh. Interrupt with Ctrl+C.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.logTo(cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			settings, err := app.loadSettings()
			if err != nil {
				return err
			}

			entries, err := app.fleetEntries(ctx, accounts)
			if err != nil {
				return err
			}

			log := app.logger.WithField(logging.FieldRun, uuid.NewString())
			log.Infof("starting automation for %d account(s)", len(entries))

			factory := func(entry application.FleetEntry) (application.Runner, error) {
				transport, err := app.transportFor(entry)
				if err != nil {
					return nil, err
				}

				runner, err := application.NewAccountRunner(application.RunnerDeps{
					Credential: entry.Credential,
					Transport:  transport,
					Scorer:     app.scorer,
					Clock:      app.clock,
					Logger:     logging.ForAccount(log, entry.Credential.Name),
					Settings:   settings,
					Timings:    application.DefaultGameTimings(),
					Once:       once,
				})
				if err != nil {
					return nil, err
				}
				return runner, nil
			}

			if err := application.NewFleetScheduler(entries, factory, settings.Restart, app.clock, log).Run(ctx); err != nil {
				return err
			}
			if ctx.Err() != nil {
				log.Info("automation interrupted")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single cycle per account and exit")
	cmd.Flags().StringArrayVar(&accounts, "account", nil, "Only run the named account (repeatable)")

	return cmd
}
