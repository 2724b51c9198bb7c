package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0ritam/studentlens/cmd/studentlens/dashboard"
	"github.com/0ritam/studentlens/internal/config"
	"github.com/0ritam/studentlens/internal/logging"
)

const version = "0.1.0"

var (
	// Global flags
	cfgPath   string
	apiURL    string
	timeoutMS int
	logLevel  string
	devLog    bool
	verbose   bool

	// Effective configuration, resolved in PersistentPreRunE.
	cfg config.Config
)

// rootCmd launches the interactive dashboard when run bare.
var rootCmd = &cobra.Command{
	Use:   "studentlens",
	Short: "studentlens - student outcome prediction dashboard",
	Long: `studentlens talks to the student performance prediction service to
predict final course outcomes (Distinction, Pass, Fail, Withdrawn) from
OULAD-style engagement and assessment features, and to explain each
prediction with SHAP and LIME.

Run without arguments to open the interactive dashboard: fill in a
student profile, get the prediction, then open the what-if view and
watch the outcome shift live as you edit fields.

Subcommands cover the same ground for scripts and pipelines.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// config init writes the file the flag names; it may not exist yet.
		if err := resolveConfig(cmd == configInitCmd); err != nil {
			return err
		}
		// The dashboard owns the terminal; logs would tear the UI, so
		// the logger stays a no-op for the bare root command.
		if cmd == rootCmd {
			return nil
		}
		_, err := logging.Init(logging.Options{
			Level: cfg.Logging.Level,
			Dev:   cfg.Logging.Dev,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboard.Run(cfg)
	},
}

// resolveConfig builds the effective configuration: defaults, then the
// config file, then command-line flags. An explicitly named config file
// must exist unless allowMissing says otherwise.
func resolveConfig(allowMissing bool) error {
	path := cfgPath
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	} else if _, err := os.Stat(path); err != nil && !allowMissing {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("api-url") {
		cfg.API.BaseURL = apiURL
	}
	if flags.Changed("timeout-ms") {
		cfg.API.TimeoutMS = timeoutMS
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("dev-log") {
		cfg.Logging.Dev = devLog
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	return cfg.Validate()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default: ~/.config/studentlens/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Prediction service base URL")
	rootCmd.PersistentFlags().IntVar(&timeoutMS, "timeout-ms", 0, "Request timeout in milliseconds")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev-log", false, "Log request and response bodies")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Predict flags
	predictCmd.Flags().StringP("file", "f", "-", "Student record JSON file (- for stdin)")
	predictCmd.Flags().Bool("json", false, "Print the raw JSON response")

	// Explain flags
	explainCmd.Flags().StringP("file", "f", "-", "Student record JSON file (- for stdin)")
	explainCmd.Flags().Bool("json", false, "Print the raw JSON response")
	explainCmd.Flags().String("save-plots", "", "Write explanation PNGs into this directory")

	// Batch flags
	batchCmd.Flags().StringP("file", "f", "-", "Records JSON file: array, object, or one object per line (- for stdin)")
	batchCmd.Flags().Bool("explain", false, "Include explanations for every record")
	batchCmd.Flags().Bool("json", false, "Print the raw JSON response")
	batchCmd.Flags().Bool("watch", false, "Re-run whenever the records file changes")

	// Guidelines flags
	guidelinesCmd.Flags().Bool("raw", false, "Print plain markdown without terminal rendering")

	// Config subcommands
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	// Add commands to root
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(guidelinesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
