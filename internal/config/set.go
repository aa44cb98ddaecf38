package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/surveyfa/internal/dataset"
)

// Set assigns one key from its string form.
func (c *Global) Set(key, val string) error {
	switch key {
	case "encoding":
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("invalid encoding: empty")
		}
		enc, err := dataset.NormalizeEncoding(val)
		if err != nil {
			return fmt.Errorf("invalid encoding: %w", err)
		}
		c.Encoding = enc
	case "delimiter":
		if _, err := parseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "keep_duplicates":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for keep_duplicates: %v", val)
		}
		c.KeepDuplicates = b
	case "output_dir":
		c.OutputDir = val
	case "plot_format":
		switch strings.ToLower(val) {
		case "png", "svg", "pdf":
			c.PlotFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid plot_format: %s (use png, svg or pdf)", val)
		}
	case "plot_width_in", "plot_height_in":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid positive float for %s: %v", key, val)
		}
		if key == "plot_width_in" {
			c.PlotWidthIn = f
		} else {
			c.PlotHeightIn = f
		}
	case "max_components":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for max_components: %v", val)
		}
		c.MaxComponents = i
	case "missing_policy":
		switch strings.ToLower(val) {
		case "level", "exclude":
			c.MissingPolicy = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid missing_policy: %s (use level or exclude)", val)
		}
	case "ordinal_levels":
		var levels []string
		for _, l := range strings.Split(val, ",") {
			if l = strings.TrimSpace(l); l != "" {
				levels = append(levels, l)
			}
		}
		if len(levels) < 2 {
			return fmt.Errorf("ordinal_levels needs at least two comma separated labels")
		}
		c.OrdinalLevels = levels
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get returns the display form of one key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "encoding":
		return c.Encoding, nil
	case "delimiter":
		return c.Delimiter, nil
	case "keep_duplicates":
		return strconv.FormatBool(c.KeepDuplicates), nil
	case "output_dir":
		return c.OutputDir, nil
	case "plot_format":
		return c.PlotFormat, nil
	case "plot_width_in":
		return strconv.FormatFloat(c.PlotWidthIn, 'g', -1, 64), nil
	case "plot_height_in":
		return strconv.FormatFloat(c.PlotHeightIn, 'g', -1, 64), nil
	case "max_components":
		return strconv.Itoa(c.MaxComponents), nil
	case "missing_policy":
		return c.MissingPolicy, nil
	case "ordinal_levels":
		return strings.Join(c.OrdinalLevels, ","), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}
