package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/surveyfa/internal/analysis"
	cfgpkg "github.com/KaramelBytes/surveyfa/internal/config"
	"github.com/KaramelBytes/surveyfa/internal/dataset"
	"github.com/KaramelBytes/surveyfa/internal/plotting"
	"github.com/KaramelBytes/surveyfa/internal/prep"
	"github.com/KaramelBytes/surveyfa/internal/utils"
)

// reportFlags are shared by every command that produces a report.
type reportFlags struct {
	output  string
	noPlots bool
	tables  bool
	groupBy []string

	// supplementary is a second survey projected onto the ordinal blocks.
	supplementary string
}

func (r *reportFlags) register(f *pflag.FlagSet, groups bool) {
	f.StringVarP(&r.output, "output", "o", "", "write the report to this path instead of stdout")
	f.BoolVar(&r.noPlots, "no-plots", false, "skip plot rendering")
	f.BoolVar(&r.tables, "tables", false, "also print eigenvalue and count tables")
	if groups {
		f.StringSliceVar(&r.groupBy, "group-by", nil, "columns colouring the individual maps (repeatable)")
	}
}

func (r *reportFlags) registerSupplementary(f *pflag.FlagSet) {
	f.StringVar(&r.supplementary, "supplementary", "", "survey file whose respondents are projected onto the PCA blocks")
}

// loadSurvey reads path with the configured encoding, delimiter and
// duplicate handling.
func loadSurvey(c *cfgpkg.Global, path string) (*dataset.RecordSet, error) {
	opt := dataset.DefaultLoadOptions()
	if c.Encoding != "" {
		opt.Encoding = c.Encoding
	}
	d, err := c.DelimiterRune()
	if err != nil {
		return nil, err
	}
	opt.Delimiter = d
	opt.KeepDuplicates = c.KeepDuplicates
	rs, err := dataset.Load(path, opt)
	if err != nil {
		return nil, err
	}
	if rs.Duplicates() > 0 {
		warnf("%d duplicate rows removed from %s", rs.Duplicates(), filepath.Base(path))
	}
	return rs, nil
}

// analysisOptions builds pipeline options from the configuration.
func analysisOptions(c *cfgpkg.Global, noPlots bool) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	if len(c.OrdinalLevels) > 0 {
		s, err := prep.NewScheme(c.OrdinalLevels...)
		if err != nil {
			return opt, fmt.Errorf("ordinal_levels: %w", err)
		}
		opt.Scheme = s
	}
	if c.MissingPolicy != "" {
		p, err := prep.ParseMissingPolicy(c.MissingPolicy)
		if err != nil {
			return opt, err
		}
		opt.Missing = p
	}
	if noPlots {
		return opt, nil
	}
	dir, err := utils.ExpandHome(c.OutputDir)
	if err != nil {
		return opt, err
	}
	po := plotting.Options{
		Dir:    dir,
		Format: c.PlotFormat,
		Width:  vg.Length(c.PlotWidthIn) * vg.Inch,
		Height: vg.Length(c.PlotHeightIn) * vg.Inch,
	}
	if err := po.Validate(); err != nil {
		return opt, err
	}
	opt.Plots = &po
	return opt, nil
}

// runPlan loads the survey, runs plan and writes the report.
func runPlan(cmd *cobra.Command, path string, plan *cfgpkg.Plan, rf reportFlags) error {
	c, err := currentConfig()
	if err != nil {
		return err
	}
	rs, err := loadSurvey(c, path)
	if err != nil {
		return err
	}
	opt, err := analysisOptions(c, rf.noPlots)
	if err != nil {
		return err
	}
	if rf.supplementary != "" {
		sup, err := loadSurvey(c, rf.supplementary)
		if err != nil {
			return fmt.Errorf("supplementary: %w", err)
		}
		opt.Supplementary = sup
	}
	res, err := analysis.Run(rs, plan, opt)
	if err != nil {
		return err
	}
	if err := writeReport(cmd, res.Markdown(c.MaxComponents), rf.output); err != nil {
		return err
	}
	if rf.tables {
		res.WriteTables(cmd.OutOrStdout(), c.MaxComponents)
	}
	var plots int
	for _, b := range res.Blocks {
		plots += len(b.Plots)
	}
	for _, x := range res.Crosses {
		plots += len(x.Plots)
	}
	if plots > 0 {
		okf(cmd, "Wrote %d plots to %s", plots, opt.Plots.Dir)
	}
	if n := len(res.Notes); n > 0 {
		warnf("%d notes, see [NOTES] in the report", n)
	}
	return nil
}

// writeReport writes md to output, or to stdout when output is empty.
func writeReport(cmd *cobra.Command, md, output string) error {
	if output == "" {
		printf(cmd, "%s\n", md)
		return nil
	}
	if err := utils.SafeWriteFile(output, []byte(md)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	okf(cmd, "Wrote report to %s", output)
	return nil
}

// blockSpec builds a single block from --pattern or --columns.
func blockSpec(name, pattern string, columns []string, fallback string) (cfgpkg.BlockSpec, error) {
	if (pattern == "") == (len(columns) == 0) {
		return cfgpkg.BlockSpec{}, fmt.Errorf("specify exactly one of --pattern or --columns")
	}
	if name == "" {
		name = strings.TrimRight(pattern, "_ ")
	}
	if name == "" {
		name = fallback
	}
	return cfgpkg.BlockSpec{Name: name, Pattern: pattern, Columns: columns}, nil
}
