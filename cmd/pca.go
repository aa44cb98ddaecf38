package cmd

import (
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/surveyfa/internal/config"
)

var (
	pcaName    string
	pcaPattern string
	pcaColumns []string
	pcaLevels  []string
	pcaReport  reportFlags
)

var pcaCmd = &cobra.Command{
	Use:   "pca <file>",
	Short: "PCA of one block of ordinal (Likert) questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := blockSpec(pcaName, pcaPattern, pcaColumns, "PCA")
		if err != nil {
			return err
		}
		spec.Levels = pcaLevels
		plan := &cfgpkg.Plan{Ordinal: []cfgpkg.BlockSpec{spec}, Groupings: pcaReport.groupBy}
		return runPlan(cmd, args[0], plan, pcaReport)
	},
}

func init() {
	rootCmd.AddCommand(pcaCmd)
	f := pcaCmd.Flags()
	f.StringVar(&pcaName, "name", "", "block name used in titles (default: the pattern)")
	f.StringVar(&pcaPattern, "pattern", "", "select every column whose name contains this text")
	f.StringSliceVar(&pcaColumns, "columns", nil, "explicit column list")
	f.StringSliceVar(&pcaLevels, "levels", nil, "ordered labels, lowest first (overrides ordinal_levels)")
	pcaReport.register(f, true)
	pcaReport.registerSupplementary(f)
}
