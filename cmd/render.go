package cmd

import (
	"fmt"

	"github.com/jsphweid/ceol/engine"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <position|id>",
	Short: "Engraves a tune",
	Long:  `Engraves a tune as text, a fixed number of measures to a line.`,
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
		v, err := engine.NewABC(nil).Parse(tune.Notation, engine.RenderOptions{MeasuresPerLine: measures})
		if err != nil {
			return err
		}
		h := v.Score().Header
		fmt.Printf("%s (%s)\n", v.Title(), tune.Type)
		fmt.Printf("K:%s M:%s L:%s Q:1/4=%d\n\n", h.Key, h.Meter, h.UnitLength, v.Score().Tempo())
		for _, line := range v.Lines() {
			fmt.Println(line)
		}
		return nil
	},
}
