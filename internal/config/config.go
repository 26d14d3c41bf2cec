// Package config loads the checker's session-level configuration options
// (spec.md §6): target runtime version, strictness, stdlib opt-out, and
// the error/recursion bounds the rest of the core consults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the full set of configuration a check session accepts.
type Options struct {
	TargetRuntimeVersion string `yaml:"target_runtime_version"`
	StrictMode           bool   `yaml:"strict_mode"`
	NoStdlib             bool   `yaml:"no_stdlib"`
	MaxErrors            int    `yaml:"max_errors"`
	MaxLazyDepth         int    `yaml:"max_lazy_depth"`
	MaxReexportDepth     int    `yaml:"max_reexport_depth"`
}

// Default returns the options the spec names as defaults: unbounded
// errors, and both recursion bounds at 10.
func Default() Options {
	return Options{
		TargetRuntimeVersion: "latest",
		MaxLazyDepth:         10,
		MaxReexportDepth:     10,
	}
}

// Load reads YAML configuration from path, filling in any field left at
// its zero value with Default()'s value so a partial config file only
// overrides what it mentions.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if opts.MaxLazyDepth == 0 {
		opts.MaxLazyDepth = 10
	}
	if opts.MaxReexportDepth == 0 {
		opts.MaxReexportDepth = 10
	}
	return opts, nil
}
