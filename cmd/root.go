package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mbx",
		Short:         "Moonbix CLI (mbx): automate Moonbix tasks and games",
		Long:          "mbx logs Moonbix accounts in, completes their check-in tasks and plays every available game ticket, then sleeps until tickets refresh. Each account runs independently, optionally through its own proxy.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newRunCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}
