package cmd

import (
	"fmt"

	"github.com/jsphweid/ceol/midi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Inspects a MIDI file",
	Long:  `Inspects a MIDI file, such as one written by export.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := midi.ReadMidiFile(args[0])
		if err != nil {
			return err
		}
		sum, err := midi.Summarize(s)
		if err != nil {
			return err
		}
		fmt.Printf("tracks: %v\n", sum.Tracks)
		fmt.Printf("name: %v\n", sum.Name)
		fmt.Printf("tempo: %v\n", sum.Tempo)
		fmt.Printf("program: %v\n", sum.Program)
		fmt.Printf("notes: %v\n", sum.Notes)
		fmt.Printf("duration: %v\n", sum.Duration)
		return nil
	},
}
