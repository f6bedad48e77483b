package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psantana5/calltiming/pkg/logging"
)

var logrotateKeepDays int

var logrotateCmd = &cobra.Command{
	Use:   "logrotate",
	Short: "Print a logrotate configuration for the trace log",
	Long:  `Prints a logrotate stanza for the directory that --output log writes to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := filepath.Dir(logging.LogPath("trace"))
		fmt.Fprint(cmd.OutOrStdout(), logging.GenerateLogrotateConfig(dir, logrotateKeepDays))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logrotateCmd)
	logrotateCmd.Flags().IntVar(&logrotateKeepDays, "keep", 14, "days of logs to keep")
}
