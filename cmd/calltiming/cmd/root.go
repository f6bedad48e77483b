package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/calltiming/internal/config"
	"github.com/psantana5/calltiming/pkg/logging"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
	logger  *logging.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "calltiming",
	Short: "Call-boundary timing traces",
	Long: `calltiming times instrumented calls and prints a trace line when a call is
slow, or periodically for hot call sites with cumulative totals.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat == "json")
		logger.SetOutput(cmd.ErrOrStderr())
		logger.Debug("configuration loaded", map[string]interface{}{
			"file":  v.ConfigFileUsed(),
			"sites": len(cfg.Sites),
		})
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.calltiming/config.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("output", "stderr", "where trace lines go: stdout, stderr, log, none")
	flags.String("default-category", "", "category for sites without one")

	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("output", flags.Lookup("output"))
	_ = v.BindPFlag("default_category", flags.Lookup("default-category"))
}
