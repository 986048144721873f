package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kshetline/asteroid-comet-data-generator/internal/config"
	"github.com/kshetline/asteroid-comet-data-generator/internal/horizons"
	"github.com/kshetline/asteroid-comet-data-generator/pkg/telnet"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "acdg",
	Short: "Asteroid and comet orbital-element generator",
	Long: `Fetches osculating orbital elements for asteroids and comets from the
JPL Horizons telnet service by scripting its interactive menus, refines
the results around close planetary encounters, and writes per-body JSON
data files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.FindConfigFile()
		}

		cfg = &config.Config{}
		if err := config.Load(path, cfg); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Flags bound through viper win over file and environment.
		if v := viper.GetString("horizons.host"); v != "" {
			cfg.Horizons.Host = v
		}
		if v := viper.GetInt("horizons.port"); v != 0 {
			cfg.Horizons.Port = v
		}
		if v := viper.GetString("output.dir"); v != "" {
			cfg.Output.Dir = v
		}
		if v := viper.GetString("log.level"); v != "" {
			cfg.Log.Level = v
		}
		if viper.GetBool("log.debug") {
			cfg.Log.Debug = true
		}

		cfg.Log.ConfigureZerolog()
		return nil
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searched in ., ./configs, /etc/acdg, ~/.acdg)")
	rootCmd.PersistentFlags().String("host", "", "Horizons telnet host")
	rootCmd.PersistentFlags().Int("port", 0, "Horizons telnet port")
	rootCmd.PersistentFlags().String("output-dir", "", "directory for generated data files")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	viper.BindPFlag("horizons.host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("horizons.port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("output.dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetEnvPrefix("ACDG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func horizonsConfig() horizons.Config {
	return horizons.Config{
		Host:           cfg.Horizons.Host,
		Port:           cfg.Horizons.Port,
		LocalAddr:      cfg.Horizons.LocalAddr,
		ConnectTimeout: cfg.Horizons.ConnectTimeout,
		IdleTimeout:    cfg.Horizons.IdleTimeout,
		SendTimeout:    cfg.Horizons.SendTimeout,
		MaxAttempts:    cfg.Horizons.MaxAttempts,
	}
}

func telnetConfig() telnet.Config {
	return telnet.Config{
		Host:           cfg.Horizons.Host,
		Port:           cfg.Horizons.Port,
		LocalAddr:      cfg.Horizons.LocalAddr,
		ConnectTimeout: cfg.Horizons.ConnectTimeout,
		SessionTimeout: cfg.Horizons.IdleTimeout,
		SendTimeout:    cfg.Horizons.SendTimeout,
	}
}
