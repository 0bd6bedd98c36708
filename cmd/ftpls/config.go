package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// configFileName is looked up in the working directory first, then in
// <user config dir>/ftpls/.
const configFileName = ".ftpls.yaml"

// Config holds ftpls settings. Values come from defaults, then the config
// file, then command-line flags.
type Config struct {
	Format  string        `yaml:"format"`
	Charset string        `yaml:"charset"`
	Timeout time.Duration `yaml:"timeout"`
	NoColor bool          `yaml:"no_color"`
	All     bool          `yaml:"all"`
	MLSD    bool          `yaml:"mlsd"`
	Debug   bool          `yaml:"debug"`

	// MaxListingSize caps one listing in bytes; 0 means no limit
	MaxListingSize int64 `yaml:"max_listing_size"`

	// BandwidthLimit caps data connection reads in bytes per second
	BandwidthLimit int64 `yaml:"bandwidth_limit"`
}

func defaultConfig() *Config {
	return &Config{
		Format:  "table",
		Timeout: 30 * time.Second,
		MLSD:    true,
	}
}

// configLocations returns the files searched when no -config is given.
func configLocations() []string {
	locations := []string{configFileName}
	if dir, err := os.UserConfigDir(); err == nil {
		locations = append(locations, filepath.Join(dir, "ftpls", "config.yaml"))
	}
	return locations
}

// loadConfig reads path, or the first existing default location when path
// is empty. Missing default files are not an error.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := decodeConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return cfg, nil
	}

	for _, location := range configLocations() {
		data, err := os.ReadFile(location)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := decodeConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", location, err)
		}
		break
	}
	return cfg, nil
}

func decodeConfig(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
