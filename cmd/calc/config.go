package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	projectConfigName = "calc.yaml"
	homeConfigName    = "config.yaml"
	defaultFormat     = "%v"
)

// fileConfig is the shape of the defaults file. Unset fields leave the flag
// defaults alone.
type fileConfig struct {
	Degrees *bool   `yaml:"degrees,omitempty"`
	Format  *string `yaml:"format,omitempty"`
}

// discoverConfigPath resolves the defaults file location with first-match
// semantics.
func discoverConfigPath(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("resolve working directory: %w", err)
	}
	// A missing home directory only means there is no home config.
	homeDir, _ := os.UserHomeDir()
	return discoverConfigPathFrom(explicitPath, cwd, homeDir)
}

// discoverConfigPathFrom is a testable variant of discoverConfigPath. An
// explicit path must name an existing regular file. Otherwise the project file
// in cwd wins over the one under homeDir, and finding neither is not an error.
func discoverConfigPathFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	if explicit := strings.TrimSpace(explicitPath); explicit != "" {
		explicit = filepath.Clean(explicit)
		info, err := os.Stat(explicit)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return "", false, fmt.Errorf("config file %q not found", explicit)
		case err != nil:
			return "", false, fmt.Errorf("checking config path %q: %w", explicit, err)
		case info.IsDir():
			return "", false, fmt.Errorf("config path %q is a directory", explicit)
		}
		return explicit, true, nil
	}

	candidates := []string{filepath.Join(cwd, projectConfigName)}
	if homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "calc", homeConfigName))
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("checking config path %q: %w", candidate, err)
		}
		return candidate, true, nil
	}
	return "", false, nil
}

func loadConfig(path string) (fileConfig, error) {
	// #nosec G304 -- path from user CLI arg or config discovery.
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("reading config %q: %w", path, err)
	}

	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// checkFormat reports whether format can print exactly one float64.
func checkFormat(format string) error {
	var buf strings.Builder
	fmt.Fprintf(&buf, format, 0.0)
	if !strings.Contains(format, "%") || strings.Contains(buf.String(), "%!") {
		return fmt.Errorf("format %q must contain exactly one verb for the result", format)
	}
	return nil
}
