package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jsphweid/ceol/constants"
	"github.com/jsphweid/ceol/view"
	"github.com/jsphweid/ceol/web"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	addr        string
	openBrowser bool
)

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", constants.GetAddr(), "address to listen on")
	serveCmd.Flags().BoolVar(&openBrowser, "open", false, "open the tune book in the browser")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the tune book",
	Long:  `Serves the tune book as a web page with a JSON API behind it.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	verbose = true
	logger := newLogger()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	rec := view.NewRecorder()
	a, err := newApp(logger, rec)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	state := a.State()
	fmt.Printf("Loaded %d tunes from %s\n", state.Count, tunesURI)

	url := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		url = "http://" + addr
	}
	fmt.Printf("Serving on %s\n", url)
	if openBrowser {
		if err := browser.OpenURL(url); err != nil {
			logger.Printf("could not open browser: %v", err)
		}
	}
	return web.ListenAndServe(ctx, addr, web.NewServer(a, rec, logger).Handler())
}
