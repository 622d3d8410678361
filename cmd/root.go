package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/jsphweid/ceol/app"
	"github.com/jsphweid/ceol/audio/otoaudio"
	"github.com/jsphweid/ceol/constants"
	"github.com/jsphweid/ceol/engine"
	"github.com/jsphweid/ceol/library"
	"github.com/jsphweid/ceol/model"
	"github.com/jsphweid/ceol/source"
	"github.com/spf13/cobra"
)

var (
	tunesURI      string
	soundFontPath string
	measures      int
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "ceol",
	Short: "A tune book for traditional music",
	Long: `ceol keeps a book of tunes written in ABC notation. It engraves them,
plays them through a SoundFont and exports them as MIDI, from the browser,
the terminal or the command line.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tunesURI, "tunes", constants.GetTunesPath(), "tune document: a path, http(s)://, s3://bucket/key or dynamodb://table")
	rootCmd.PersistentFlags().StringVar(&soundFontPath, "soundfont", constants.GetSoundFontPath(), "SoundFont (.sf2) used for playback")
	rootCmd.PersistentFlags().IntVar(&measures, "measures", constants.DefaultMeasures, "measures per engraved line")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// newLogger logs to stderr when verbose, and nowhere otherwise so the TUI
// is not drawn over.
func newLogger() *log.Logger {
	if verbose {
		return log.New(os.Stderr, "ceol: ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

func openSource() (source.Source, error) {
	return source.Open(tunesURI, source.DefaultOptions())
}

// loadStore loads the tune book for one-shot commands, which unlike the
// interactive ones fail when the book cannot be read.
func loadStore(ctx context.Context, logger *log.Logger) (*library.Store, error) {
	src, err := openSource()
	if err != nil {
		return nil, err
	}
	store := library.New(logger)
	if err := store.Load(ctx, src); err != nil {
		return nil, err
	}
	return store, nil
}

func newApp(logger *log.Logger, surface app.Surface) (*app.App, error) {
	src, err := openSource()
	if err != nil {
		return nil, err
	}
	return app.New(app.Config{
		Store:           library.New(logger),
		Source:          src,
		Loader:          engine.NewLoader(engine.LoadABC(soundFontPath)),
		Audio:           otoaudio.NewContext,
		Surface:         surface,
		Logger:          logger,
		MeasuresPerLine: measures,
		PreviewDelay:    constants.PreviewDebounce,
	}), nil
}

// findTune accepts a 1-based position, as shown by list, or a tune id.
func findTune(store *library.Store, arg string) (model.Tune, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if t, ok := store.Get(n - 1); ok {
			return t, nil
		}
		return model.Tune{}, fmt.Errorf("no tune at position %d, the book has %d", n, store.Len())
	}
	if _, t, ok := store.Find(arg); ok {
		return t, nil
	}
	return model.Tune{}, fmt.Errorf("no tune with id %q", arg)
}
