package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyfa/internal/analysis"
	"github.com/KaramelBytes/surveyfa/internal/prep"
)

var (
	descOutput     string
	descSampleRows int
	descTopValues  int
	descTables     bool
	descColumns    []string
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Summarise every column of a survey export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		rs, err := loadSurvey(c, args[0])
		if err != nil {
			return err
		}
		if len(descColumns) > 0 {
			if rs, err = rs.Select(descColumns...); err != nil {
				return err
			}
		}
		opt := analysis.DefaultDescribeOptions()
		if len(c.OrdinalLevels) > 0 {
			s, err := prep.NewScheme(c.OrdinalLevels...)
			if err != nil {
				return err
			}
			opt.Scheme = s
		}
		if descSampleRows >= 0 {
			opt.SampleRows = descSampleRows
		}
		if descTopValues > 0 {
			opt.TopValues = descTopValues
		}
		d := analysis.Describe(rs, opt)
		if descTables {
			d.WriteTables(cmd.OutOrStdout())
			if descOutput == "" {
				return nil
			}
		}
		return writeReport(cmd, d.Markdown(), descOutput)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutput, "output", "o", "", "write the summary to this path instead of stdout")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of leading rows to include")
	describeCmd.Flags().IntVar(&descTopValues, "top", 8, "category counts listed per column")
	describeCmd.Flags().BoolVar(&descTables, "tables", false, "print a terminal table instead of the text summary")
	describeCmd.Flags().StringSliceVar(&descColumns, "columns", nil, "only summarise these columns")
}
