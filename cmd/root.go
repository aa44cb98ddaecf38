package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/surveyfa/internal/config"
	"github.com/KaramelBytes/surveyfa/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Input/output flags (override config if set)
	flagOutputDir  string
	flagPlotFormat string
	flagEncoding   string
	flagDelimiter  string
	flagKeepDups   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "surveyfa",
	Short: "surveyfa: factor analysis of survey exports",
	Long: `surveyfa loads a delimited survey export, cleans groups of Likert and categorical
questions, and runs PCA, MCA and correspondence analysis with plots and a text report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.surveyfa/config.yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug logging")
	f.StringVar(&flagOutputDir, "output-dir", "", "directory for plots (overrides config)")
	f.StringVar(&flagPlotFormat, "plot-format", "", "plot format: png | svg | pdf (overrides config)")
	f.StringVar(&flagEncoding, "encoding", "", "input encoding: latin1 | utf8, or latin-1, iso-8859-1, utf-8 (overrides config)")
	f.StringVar(&flagDelimiter, "delimiter", "", "field delimiter, e.g. ',' ';' or 'tab' (overrides config)")
	f.BoolVar(&flagKeepDups, "keep-duplicates", false, "keep repeated rows instead of removing them (overrides config)")
}

func loadConfig() {
	logging.SetLogger(logging.New(os.Stderr, debug))

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults or report the error themselves
		warnf("failed to load config: %v", err)
		cfg = nil
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	overrides := []struct {
		flag, key, val string
	}{
		{"output-dir", "output_dir", flagOutputDir},
		{"plot-format", "plot_format", flagPlotFormat},
		{"encoding", "encoding", flagEncoding},
		{"delimiter", "delimiter", flagDelimiter},
		{"keep-duplicates", "keep_duplicates", strconv.FormatBool(flagKeepDups)},
	}
	for _, o := range overrides {
		if !f.Changed(o.flag) {
			continue
		}
		if err := cfg.Set(o.key, o.val); err != nil {
			warnf("ignoring --%s: %v", o.flag, err)
		}
	}
}

// currentConfig returns the loaded configuration, loading it again when the
// startup load failed so that the caller sees the error.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func warnf(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "⚠ Warning: "+format+"\n", args...)
}

func okf(cmd *cobra.Command, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ "+format+"\n", args...)
}

// printf writes to the command's output stream.
func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
