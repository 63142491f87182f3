// Command debkit builds, inspects and indexes Debian binary packages without
// dpkg.
package main

import (
	"fmt"
	"os"

	"github.com/etnz/debkit/config"
	"github.com/etnz/debkit/deb"
	"github.com/etnz/debkit/internal/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const applicationName = "debkit"

var (
	configPath string
	verbose    bool
	appConfig  = config.Default()
)

var rootCmd = &cobra.Command{
	Use:           applicationName,
	Short:         "Build, inspect and index Debian packages",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logrus.InfoLevel
		if verbose {
			level = logrus.DebugLevel
		}
		log.Set(log.New(os.Stderr, level))

		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		appConfig = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", applicationName+".yaml", "path to the configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
}

// compressionFlag returns the value of the -Z flag of cmd, or the configured
// compression when the flag was not given.
func compressionFlag(cmd *cobra.Command, value deb.Compression) (deb.Compression, error) {
	if cmd.Flags().Changed("compression") {
		return value, nil
	}
	return appConfig.Scheme()
}

func addCompressionFlag(cmd *cobra.Command, value *deb.Compression) {
	cmd.Flags().VarP(value, "compression", "Z", "compression of the control and data members: gz, bz2, xz, zst or none (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", applicationName, err)
		os.Exit(1)
	}
}
