package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// DefaultRoot is scanned when neither flags nor configuration name a root.
const DefaultRoot = "github.com/GoCodeAlone/beans/cmd/beanctl/internal/sample"

type rootOptions struct {
	configFile string
	envFile    string
	roots      []string
	verbose    bool
}

// NewRootCommand creates the root command for the beanctl application
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "beanctl",
		Short: "beanctl - inspect a beans dependency-injection container",
		Long: `beanctl scans the components compiled into it, builds a container
and lets you list definitions, resolve beans and read container statistics.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "configuration file (.yaml, .yml, .toml or .json)")
	flags.StringVar(&opts.envFile, "env-file", "", "optional .env file")
	flags.StringSliceVarP(&opts.roots, "root", "r", nil, "package path roots to scan (overrides configuration)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log container activity")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand prints version information
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	}
}

// PrintVersion returns version information
func PrintVersion() string {
	return fmt.Sprintf("beanctl v%s (commit: %s, built on: %s)", Version, Commit, Date)
}
