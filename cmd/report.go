package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/ceol/abc"
	"github.com/jsphweid/ceol/library"
	"github.com/jsphweid/ceol/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Creates a report",
	Long:  `Creates a report of the tune book: tunes per type, measures and tunes that do not parse.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context(), newLogger())
		if err != nil {
			return err
		}
		printReport(analyzeTunes(store))
		return nil
	},
}

type tunesReport struct {
	numTunes int
	byType   map[string]int
	measures []int
	tempos   []int
	failures []string
}

func analyzeTunes(store *library.Store) tunesReport {
	report := tunesReport{byType: map[string]int{}}
	for i, t := range store.All() {
		report.numTunes += 1
		report.byType[strings.ToLower(t.Type)] += 1
		score, err := abc.Parse(t.Notation)
		if err != nil {
			report.failures = append(report.failures, fmt.Sprintf("%d %s: %v", i+1, t.Title, err))
			continue
		}
		report.measures = append(report.measures, score.Measures())
		report.tempos = append(report.tempos, score.Tempo())
	}
	return report
}

func printReport(report tunesReport) {
	fmt.Printf("tunes: %v\n", report.numTunes)
	for _, k := range util.GetKeysSorted(report.byType) {
		fmt.Printf("  %v: %v\n", k, report.byType[k])
	}
	totalMeasures := util.Sum(report.measures)
	fmt.Printf("measures: %v\n", totalMeasures)
	if n := len(report.tempos); n > 0 {
		fmt.Printf("average tempo: %v\n", util.Sum(report.tempos)/uint64(n))
	}
	fmt.Printf("parse failures: %v\n", len(report.failures))
	for _, f := range report.failures {
		fmt.Printf("  %v\n", f)
	}
}
