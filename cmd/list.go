package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listQuery string

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "only tunes whose title or type contains this")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the tunes",
	Long:  `Lists the tunes in book order with their position, type and id.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context(), newLogger())
		if err != nil {
			return err
		}
		for _, e := range store.Search(listQuery) {
			fmt.Printf("%3d  %-32s %-12s %s\n", e.Index+1, e.Tune.Title, e.Tune.Type, e.Tune.Id)
		}
		return nil
	},
}
