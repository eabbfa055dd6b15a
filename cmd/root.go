package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ericogr/rs500-logger/pkg/config"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

var cfgFile string
var verbose bool

// configErr is set by initConfig and returned before any command runs.
var configErr error

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "rs500",
	Short: "RS500 temperature/humidity station logger",
	Long: `rs500 polls a multi-channel USB temperature/humidity station, appends
each reading set to a weekly CSV log and builds the series used for charts
from the accumulated logs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			jww.SetStdoutThreshold(jww.LevelTrace)
		} else {
			jww.SetStdoutThreshold(jww.LevelWarn)
		}
		if configErr != nil {
			return configErr
		}
		if f := viper.ConfigFileUsed(); f != "" {
			jww.DEBUG.Println("Using config file:", f)
		}
		return nil
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		jww.ERROR.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is rs500.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	config.AddFlags(RootCmd.PersistentFlags())

	if err := config.BindFlags(viper.GetViper(), RootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configErr = readConfig(viper.GetViper(), cfgFile)
}

// readConfig loads file, or searches the default locations when file is
// empty. Only a missing file in the search locations is not an error.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("rs500")
		v.AddConfigPath("/etc/rs500/")
		v.AddConfigPath("$HOME/.rs500/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("rs500")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
