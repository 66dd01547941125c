package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	KeyFile      = "file"
	KeyOutput    = "output"
	KeyOutputDir = "output_dir"
	KeyAllEdges  = "all_edges"
	KeyFormat    = "format"
	KeyDebug     = "debug"
)

// Config represents the resolved command configuration
type Config struct {
	File      string // schema document to read
	Output    string // graph file, "-" for stdout
	OutputDir string // split output directory, overrides Output when set
	AllEdges  bool   // keep edges not touching the focus model
	Format    string // single-model report format: text or markdown
	Debug     bool
}

// New creates a viper instance reading MODELGRAPH_* env vars and the
// optional .modelgraph.yaml config file.
// An explicit configFile must exist; the implicit one may be absent.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyOutput, "data.dot")
	v.SetDefault(KeyAllEdges, false)
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyDebug, false)

	v.SetEnvPrefix("MODELGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigName(".modelgraph")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// Load resolves the configuration from v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		File:      v.GetString(KeyFile),
		Output:    v.GetString(KeyOutput),
		OutputDir: v.GetString(KeyOutputDir),
		AllEdges:  v.GetBool(KeyAllEdges),
		Format:    v.GetString(KeyFormat),
		Debug:     v.GetBool(KeyDebug),
	}

	switch cfg.Format {
	case "text", "markdown":
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", cfg.Format)
	}

	return cfg, nil
}

// RequireFile reports an error when no schema document is configured
func (c *Config) RequireFile() error {
	if c.File == "" {
		return fmt.Errorf("--file must be specified (or set MODELGRAPH_FILE)")
	}
	return nil
}
