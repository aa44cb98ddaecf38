package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/surveyfa/internal/config"
)

var (
	caName   string
	caRows   string
	caCols   string
	caReport reportFlags
)

var caCmd = &cobra.Command{
	Use:   "ca <file>",
	Short: "Contingency table and correspondence analysis of two columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if caRows == "" || caCols == "" {
			return fmt.Errorf("--rows and --cols are required")
		}
		name := caName
		if name == "" {
			name = caRows + " x " + caCols
		}
		plan := &cfgpkg.Plan{Contingency: []cfgpkg.CrossSpec{{Name: name, Rows: caRows, Cols: caCols}}}
		return runPlan(cmd, args[0], plan, caReport)
	},
}

func init() {
	rootCmd.AddCommand(caCmd)
	f := caCmd.Flags()
	f.StringVar(&caName, "name", "", "table name used in titles (default: \"<rows> x <cols>\")")
	f.StringVar(&caRows, "rows", "", "column giving the table rows")
	f.StringVar(&caCols, "cols", "", "column giving the table columns")
	caReport.register(f, false)
}
