package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ericogr/rs500-logger/pkg/aggregate"
	"github.com/ericogr/rs500-logger/pkg/config"
	"github.com/ericogr/rs500-logger/pkg/logfile"
	"github.com/ericogr/rs500-logger/pkg/series"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

// plotCmd represents the plot command
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Build chart series from the logs",
	Long: `Reads the weekly CSV logs and writes the point series a chart renderer
needs. --kind 24hrs emits the raw rows of the trailing window, --kind avg
emits one averaged point per closed bucket of --bucket-days days.`,
	RunE: plot,
}

func init() {
	RootCmd.AddCommand(plotCmd)

	plotCmd.Flags().String("kind", series.KindRecent, "Series kind: 24hrs|avg")
	plotCmd.Flags().String("format", "json", "Output format: json|csv")
	plotCmd.Flags().String("out", "", "Output file (default stdout)")
	plotCmd.Flags().Duration("window", 24*time.Hour, "Window for --kind 24hrs")
}

func plot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	kind, _ := cmd.Flags().GetString("kind")
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	window, _ := cmd.Flags().GetDuration("window")

	s, err := buildSeries(cfg, kind, time.Now(), window)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" {
		fd, err := os.Create(out)
		if err != nil {
			return err
		}
		defer fd.Close()
		w = fd
	}
	if err := writeSeries(w, s, format); err != nil {
		return err
	}
	if out != "" {
		jww.INFO.Printf("%d points written to %s", len(s.Points), out)
	}
	return nil
}

func buildSeries(cfg config.Config, kind string, now time.Time, window time.Duration) (series.Series, error) {
	s := series.Series{Kind: kind, Names: cfg.Names()}
	var err error
	switch kind {
	case series.KindRecent:
		s.Points, err = series.Recent(cfg.DataDir, now, window, cfg.Channels)
	case series.KindAverage:
		var paths []string
		paths, err = logfile.Files(cfg.DataDir)
		if err != nil {
			return s, err
		}
		s.Points, err = series.Averages(aggregate.Files(paths, cfg.Channels, cfg.BucketDays))
	default:
		return s, fmt.Errorf("unknown kind %q, want %s or %s", kind, series.KindRecent, series.KindAverage)
	}
	return s, err
}

func writeSeries(w io.Writer, s series.Series, format string) error {
	switch format {
	case "json":
		return s.WriteJSON(w)
	case "csv":
		return s.WriteCSV(w)
	}
	return fmt.Errorf("unknown format %q", format)
}
