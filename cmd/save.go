package cmd

import (
	"fmt"

	"github.com/jsphweid/ceol/file"
	"github.com/jsphweid/ceol/library"
	"github.com/jsphweid/ceol/model"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(saveCmd)
}

var saveCmd = &cobra.Command{
	Use:   "save <file.json|file.yaml>",
	Short: "Saves the tune book to a file",
	Long: `Saves the tune book, from any --tunes source, to a local JSON or YAML
file chosen by extension. Use it to take a copy of a remote book.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context(), newLogger())
		if err != nil {
			return err
		}
		if err := saveBook(store, args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote %d tunes to %s\n", store.Len(), args[0])
		return nil
	},
}

func saveBook(store *library.Store, path string) error {
	return file.WriteTuneFile(path, model.TuneDocument{Tunes: store.All()})
}
