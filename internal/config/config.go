// Package config loads the handful of knobs a skepa driver needs before
// it can run a program: the VM's call-depth bound and the module search
// roots the resolver walks imports against (spec §4.5, §6).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultMaxCallDepth mirrors vm.DefaultMaxCallDepth; kept as an
// independent constant so this package has no import-time dependency on
// the vm package.
const DefaultMaxCallDepth = 128

// EnvMaxCallDepth is the environment variable a driver may consult to
// override MaxCallDepth without a config file or flag (spec §4.5 "Environment
// variable").
const EnvMaxCallDepth = "SKEPA_MAX_CALL_DEPTH"

// Config is the project-level configuration a driver resolves before
// compiling and running a program.
type Config struct {
	MaxCallDepth int      `yaml:"max_call_depth"`
	SearchRoots  []string `yaml:"search_roots"`
	Trace        bool     `yaml:"trace"`
}

// Default returns a Config with every field at its documented default.
func Default() Config {
	return Config{MaxCallDepth: DefaultMaxCallDepth}
}

// Load reads a skepa.yaml project config from path. A missing file is not
// an error: Load returns Default() so a project with no config file still
// runs with documented defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides MaxCallDepth from SKEPA_MAX_CALL_DEPTH when it is set,
// returning a driver-level error on an unparsable or out-of-range value
// (spec §4.5: "invalid values are a driver-level error, not the core's
// concern").
func (c *Config) ApplyEnv() error {
	raw, ok := os.LookupEnv(EnvMaxCallDepth)
	if !ok || raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("config: %s=%q is not an integer", EnvMaxCallDepth, raw)
	}
	if n < 1 {
		return fmt.Errorf("config: %s=%d must be >= 1", EnvMaxCallDepth, n)
	}
	c.MaxCallDepth = n
	return nil
}

// Validate checks invariants that must hold regardless of where a Config
// came from (file, flags, or env).
func (c Config) Validate() error {
	if c.MaxCallDepth < 1 {
		return fmt.Errorf("max_call_depth must be >= 1, got %d", c.MaxCallDepth)
	}
	return nil
}

// BindFlags registers --max-call-depth, --search-root and --trace on fs, letting an
// embedding CLI layer flag overrides on top of a loaded Config without this
// package depending on any particular CLI framework.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.MaxCallDepth, "max-call-depth", c.MaxCallDepth, "maximum call stack depth before StackOverflow")
	fs.StringArrayVar(&c.SearchRoots, "search-root", c.SearchRoots, "additional module search root (repeatable)")
	fs.BoolVar(&c.Trace, "trace", c.Trace, "log the compiled module's disassembly before running it")
}
