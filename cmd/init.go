package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/surveyfa/internal/config"
	"github.com/KaramelBytes/surveyfa/internal/utils"
)

var initCmd = &cobra.Command{
	Use:   "init [plan-file]",
	Short: "Write a starter analysis plan (default ./surveyfa.yaml)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultPlanFile
		if len(args) == 1 {
			path = args[0]
		}
		// Refuse to overwrite an existing plan.
		if utils.Exists(path) {
			return fmt.Errorf("plan already exists at %s", path)
		}
		if err := cfgpkg.SavePlan(cfgpkg.DefaultPlan(), path); err != nil {
			return err
		}
		okf(cmd, "Plan written: %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
