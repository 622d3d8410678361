package cmd

import (
	"fmt"

	"github.com/jsphweid/ceol/constants"
	"github.com/jsphweid/ceol/db"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync <table>",
	Short: "Copies the tune book to DynamoDB",
	Long: `Copies the tune book to a DynamoDB table so it can be served with
--tunes dynamodb://<table>. Tunes with the same id are overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context(), newLogger())
		if err != nil {
			return err
		}
		client, err := db.NewClient(constants.GetAWSRegion(), constants.GetDynamoDBEndpoint())
		if err != nil {
			return err
		}
		tunes := store.All()
		if err := db.PutTunes(cmd.Context(), client, args[0], tunes); err != nil {
			return err
		}
		fmt.Printf("Wrote %d tunes to %s\n", len(tunes), args[0])
		return nil
	},
}
