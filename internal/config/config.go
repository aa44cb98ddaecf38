package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user directory holding config.yaml.
const DirName = ".surveyfa"

// Global configuration structure.
type Global struct {
	// Input decoding
	Encoding  string `mapstructure:"encoding" yaml:"encoding"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`

	// KeepDuplicates disables removal of repeated records at load.
	KeepDuplicates bool `mapstructure:"keep_duplicates" yaml:"keep_duplicates"`

	// Output
	OutputDir    string  `mapstructure:"output_dir" yaml:"output_dir"`
	PlotFormat   string  `mapstructure:"plot_format" yaml:"plot_format"`
	PlotWidthIn  float64 `mapstructure:"plot_width_in" yaml:"plot_width_in"`
	PlotHeightIn float64 `mapstructure:"plot_height_in" yaml:"plot_height_in"`

	// Analysis
	MaxComponents int      `mapstructure:"max_components" yaml:"max_components"`
	MissingPolicy string   `mapstructure:"missing_policy" yaml:"missing_policy"`
	OrdinalLevels []string `mapstructure:"ordinal_levels" yaml:"ordinal_levels"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"encoding", "delimiter", "keep_duplicates", "output_dir", "plot_format", "plot_width_in",
	"plot_height_in", "max_components", "missing_policy", "ordinal_levels",
}

// DelimiterRune returns the field delimiter, ',' when unset. "tab" and "\t"
// select a tab; any other value must be a single character.
func (c *Global) DelimiterRune() (rune, error) {
	if c.Delimiter == "" {
		return ',', nil
	}
	return parseDelimiter(c.Delimiter)
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, fmt.Errorf("invalid delimiter: empty")
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q: use a single character or tab", s)
	}
	return r, nil
}

// Dir returns ~/.surveyfa.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.surveyfa/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (SURVEYFA_*, including a .env in the working directory) >
// config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SURVEYFA")
	v.AutomaticEnv()

	v.SetDefault("encoding", "latin1")
	v.SetDefault("delimiter", ",")
	v.SetDefault("keep_duplicates", false)
	v.SetDefault("output_dir", "surveyfa-out")
	v.SetDefault("plot_format", "png")
	v.SetDefault("plot_width_in", 6.0)
	v.SetDefault("plot_height_in", 6.0)
	v.SetDefault("max_components", 5)
	v.SetDefault("missing_policy", "level")
	v.SetDefault("ordinal_levels", []string{"pdtd", "Neutre", "tafd"})

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
