package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericogr/rs500-logger/pkg/config"
	"github.com/ericogr/rs500-logger/pkg/output"
	"github.com/ericogr/rs500-logger/pkg/sensor"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

// pollCmd represents the poll command
var pollCmd = &cobra.Command{
	Use:     "poll",
	Aliases: []string{"read", "save"},
	Short:   "Poll the station and log one reading set",
	Long: `Polls the station until every channel answered or the try budget is used,
applies the calibration offsets and publishes the result to the configured
outputs. With --repeat it keeps polling every --interval until interrupted.`,
	RunE: poll,
}

func init() {
	RootCmd.AddCommand(pollCmd)

	pollCmd.Flags().Bool("repeat", false, "Keep polling every interval")
	pollCmd.Flags().Duration("interval", config.DefaultConfig().Interval, "Polling interval with --repeat")
	if err := config.BindFlags(viper.GetViper(), pollCmd.Flags()); err != nil {
		panic(err)
	}
}

func poll(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	open, err := deviceOpener(cfg)
	if err != nil {
		return err
	}
	s := sensor.NewStation(cfg, open)
	defer s.Close()

	outs, err := initOutputs(cfg)
	if err != nil {
		return err
	}
	defer closeOutputs(outs)

	if !viper.GetBool("repeat") {
		return pollOnce(ctx, s, outs)
	}
	return pollRepeat(ctx, s, outs, cfg.Interval)
}

// pollOnce reads one sample and hands it to every output. All outputs are
// tried even when one fails.
func pollOnce(ctx context.Context, s sensor.Sensor, outs []output.Output) error {
	sample, err := s.Read(ctx)
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	var errs []error
	for _, o := range outs {
		if err := o.Publish(sample); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func pollRepeat(ctx context.Context, s sensor.Sensor, outs []output.Output, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be > 0, got %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := pollOnce(ctx, s, outs); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			jww.ERROR.Println(err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
