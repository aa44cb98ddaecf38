package cmd

import (
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/surveyfa/internal/config"
	"github.com/KaramelBytes/surveyfa/internal/utils"
)

// defaultPlanFile is written by init and picked up by analyze from the
// working directory.
const defaultPlanFile = "surveyfa.yaml"

var (
	anaPlan   string
	anaReport reportFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run every block and contingency table of an analysis plan",
	Long: `Run the analysis plan over a survey export. The plan is read from --plan, from
./surveyfa.yaml when present, or else the built-in survey plan is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := resolvePlan(anaPlan)
		if err != nil {
			return err
		}
		return runPlan(cmd, args[0], plan, anaReport)
	},
}

func resolvePlan(path string) (*cfgpkg.Plan, error) {
	if path != "" {
		return cfgpkg.LoadPlan(path)
	}
	if utils.Exists(defaultPlanFile) {
		return cfgpkg.LoadPlan(defaultPlanFile)
	}
	return cfgpkg.DefaultPlan(), nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaPlan, "plan", "p", "", "analysis plan (YAML)")
	anaReport.register(analyzeCmd.Flags(), false)
	anaReport.registerSupplementary(analyzeCmd.Flags())
}
