package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jsphweid/ceol/abc"
	"github.com/jsphweid/ceol/midi"
	"github.com/jsphweid/ceol/model"
	"github.com/spf13/cobra"
)

var (
	exportOut        string
	exportInstrument string
	exportNotes      int
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: the tune id with .mid)")
	exportCmd.Flags().StringVarP(&exportInstrument, "instrument", "i", string(model.Violin), "violin, accordion or mandolin")
	exportCmd.Flags().IntVarP(&exportNotes, "notes", "n", 0, "only write the first n notes, as an incipit")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <position|id>",
	Short: "Exports a tune as MIDI",
	Long:  `Exports a tune as a standard MIDI file, repeats expanded.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context(), newLogger())
		if err != nil {
			return err
		}
		tune, err := findTune(store, args[0])
		if err != nil {
			return err
		}
		score, err := abc.Parse(tune.Notation)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = strings.ReplaceAll(tune.Id, "/", "_") + ".mid"
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		inst := model.ParseInstrument(exportInstrument)
		s, err := midi.Export(score, inst.Program())
		if err != nil {
			return err
		}
		if exportNotes > 0 {
			s = midi.Incipit(s, 0, exportNotes)
		}
		if _, err := s.WriteTo(f); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%s, program %d)\n", out, tune.Title, inst.Program())
		return f.Close()
	},
}
