package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/jsphweid/ceol/audio/otoaudio"
	"github.com/jsphweid/ceol/engine"
	"github.com/jsphweid/ceol/model"
	"github.com/spf13/cobra"
)

var playInstrument string

func init() {
	playCmd.Flags().StringVarP(&playInstrument, "instrument", "i", string(model.Violin), "violin, accordion or mandolin")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <position|id>",
	Short: "Plays a tune",
	Long:  `Plays a tune through the SoundFont given by --soundfont or CEOL_SOUNDFONT.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		store, err := loadStore(ctx, newLogger())
		if err != nil {
			return err
		}
		tune, err := findTune(store, args[0])
		if err != nil {
			return err
		}
		eng, err := engine.LoadABC(soundFontPath)(ctx)
		if err != nil {
			return err
		}
		abcEngine := eng.(*engine.ABC)
		v, err := abcEngine.Parse(tune.Notation, engine.RenderOptions{MeasuresPerLine: measures})
		if err != nil {
			return err
		}
		actx, err := otoaudio.NewContext()
		if err != nil {
			return err
		}

		session := eng.CreateSynth()
		if err := session.Init(ctx, engine.SessionOptions{AudioContext: actx, VisualScore: v}); err != nil {
			return err
		}
		inst := model.ParseInstrument(playInstrument)
		session.SetProgram(inst.Program())
		if err := session.Prime(ctx); err != nil {
			return err
		}
		fmt.Printf("Playing %s on %s\n", tune.Title, inst)
		if err := session.Start(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}
