package cmd

import (
	"os"
	"os/signal"

	"github.com/jsphweid/ceol/tui"
	"github.com/jsphweid/ceol/view"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Opens the tune book in the terminal",
	Long:  `Opens the tune book in the terminal.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		rec := view.NewRecorder()
		a, err := newApp(newLogger(), rec)
		if err != nil {
			return err
		}
		if err := a.Start(ctx); err != nil {
			return err
		}
		return tui.Run(ctx, a, rec)
	},
}
