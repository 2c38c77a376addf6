package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/consilium/internal/logger"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "consilium",
		Short: "Consilium: multi-AI expert consensus platform",
		Long:  "Consilium runs moderated discussions between expert AI models, with live research, and synthesizes a final recommendation.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetGlobalLevel(logger.DEBUG)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newAskCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "consilium %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
