package main

import (
	"os"

	"github.com/sagarc03/neo/clientcli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "dev"

// current holds the settings resolved for this invocation.
var current *settings

var rootCmd = &cobra.Command{
	Use:     "neo",
	Version: version,
	Short:   "Manage the files of a Neocities site",
	Long: `neo lists, uploads and deletes the files of a Neocities site.

The API key is read from --api-key, NEOCITIES_API_KEY or a profile in
~/.neo/config.yaml (see "neo configure"), in that order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd.Flags())
		if err != nil {
			return err
		}
		current = s
		setupLogging(os.Stderr, s.Log.Level, s.Log.Format)
		return nil
	},
}

func init() {
	registerGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configureCmd)
}

func registerGlobalFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "config file (default: ~/.neo/config.yaml, env: NEOCITIES_CONFIG)")
	flags.StringP("profile", "p", "", "profile to use (env: NEOCITIES_PROFILE)")
	flags.StringP("endpoint", "e", "", "API endpoint (default: "+clientcli.DefaultEndpoint+", env: NEOCITIES_ENDPOINT)")
	flags.StringP("api-key", "k", "", "API key (env: NEOCITIES_API_KEY)")
	flags.Bool("json", false, "output as JSON")
	flags.BoolP("quiet", "q", false, "suppress non-essential output")
	flags.String("log-level", "", "log level: debug, info, warn, error (default: warn, env: NEOCITIES_LOG_LEVEL)")
	flags.String("log-format", "", "log format: text, json (default: text)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		os.Exit(1)
	}
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	if current == nil {
		return clientcli.NewFormatter(false, false)
	}
	return clientcli.NewFormatter(current.JSON, current.Quiet)
}

// getClient creates a client from the resolved settings and profile.
func getClient() (*clientcli.Client, error) {
	cfg, err := resolveConfig(current)
	if err != nil {
		return nil, err
	}

	return clientcli.NewFromConfig(cfg, clientcli.WithHTTPClient(newHTTPClient()))
}
