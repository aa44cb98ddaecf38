package cmd

import (
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/surveyfa/internal/config"
)

var (
	mcaName    string
	mcaPattern string
	mcaColumns []string
	mcaReport  reportFlags
)

var mcaCmd = &cobra.Command{
	Use:   "mca <file>",
	Short: "MCA of one block of categorical questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := blockSpec(mcaName, mcaPattern, mcaColumns, "MCA")
		if err != nil {
			return err
		}
		plan := &cfgpkg.Plan{Categorical: []cfgpkg.BlockSpec{spec}, Groupings: mcaReport.groupBy}
		return runPlan(cmd, args[0], plan, mcaReport)
	},
}

func init() {
	rootCmd.AddCommand(mcaCmd)
	f := mcaCmd.Flags()
	f.StringVar(&mcaName, "name", "", "block name used in titles (default: the pattern)")
	f.StringVar(&mcaPattern, "pattern", "", "select every column whose name contains this text")
	f.StringSliceVar(&mcaColumns, "columns", nil, "explicit column list")
	mcaReport.register(f, true)
}
