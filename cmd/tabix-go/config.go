package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/scttfrdmn/tabix-go/pkg/parser"
	"github.com/scttfrdmn/tabix-go/pkg/tabix"
)

// fileConfig is the YAML configuration file.
type fileConfig struct {
	Index      string `yaml:"index"`
	Parser     string `yaml:"parser"`
	Encoding   string `yaml:"encoding"`
	Strict     bool   `yaml:"strict"`
	MetaChar   string `yaml:"meta_char"`
	BlockCache *int   `yaml:"block_cache"`
	Workers    int    `yaml:"workers"`
	LogLevel   string `yaml:"log_level"`
}

// loadFileConfig reads --config or $TABIX_CONFIG. No path means an empty config.
func loadFileConfig() (*fileConfig, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("TABIX_CONFIG")
	}
	fc := &fileConfig{}
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && configPath == "" {
			return fc, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return fc, nil
}

// buildConfig merges the config file into tabix defaults.
func buildConfig() (*tabix.Config, error) {
	fc, err := loadFileConfig()
	if err != nil {
		return nil, err
	}

	cfg := tabix.NewConfig()
	cfg.Logger = logrus.StandardLogger()
	cfg.IndexPath = fc.Index
	cfg.Strict = fc.Strict
	if fc.Encoding != "" {
		cfg.Encoding = fc.Encoding
	}
	if fc.BlockCache != nil {
		cfg.BlockCacheSize = *fc.BlockCache
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	switch len(fc.MetaChar) {
	case 0:
	case 1:
		cfg.MetaChar = fc.MetaChar[0]
	default:
		return nil, fmt.Errorf("meta_char must be a single character, got %q", fc.MetaChar)
	}
	if fc.Parser != "" {
		p, err := newParser(fc.Parser, cfg.Encoding)
		if err != nil {
			return nil, err
		}
		cfg.Parser = p
	}
	return cfg, nil
}

func newParser(name, encoding string) (parser.Parser, error) {
	format, err := parser.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	enc, err := parser.LookupEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return parser.New(format, enc)
}

// openFile opens path with the merged configuration, applying overrides.
func openFile(path string, apply func(cfg *tabix.Config) error) (*tabix.IndexedFile, *tabix.Config, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, nil, err
	}
	if apply != nil {
		if err := apply(cfg); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if showConfig {
		cfg.ShowConfig(os.Stderr)
	}

	f, err := tabix.Open(path, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, cfg, nil
}
