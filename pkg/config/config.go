package config

import (
	"os"
	"runtime"

	"github.com/minazuki-dev/zhconv/pkg/dict"
	"gitlab.com/tozd/go/errors"
)

// ErrConfig marks configuration problems that abort the run before
// any file is touched
var ErrConfig = errors.Base("invalid configuration")

// DefaultExtensions is the discovery allow-list
var DefaultExtensions = []string{".txt", ".md", ".json", ".yaml", ".yml", ".png"}

// Config is the full set of run options after merging the config
// file and command-line flags. Read-only once the run starts.
type Config struct {
	Direction dict.Direction

	Dictionary        string
	ExtraDictionaries []string

	InPlace   bool
	OutDir    string
	Outputs   []string
	Recursive bool
	DryRun    bool
	Backup    bool
	Force     bool
	KeepGoing bool
	Unify     bool

	Jobs             int
	Blacklist        []string
	RespectGitignore bool
	Extensions       []string

	OpenCCForward string
	OpenCCReverse string
}

// Default returns the baseline configuration
func Default() *Config {
	return &Config{
		Direction:     dict.Forward,
		Extensions:    DefaultExtensions,
		OpenCCForward: "s2twp.json",
		OpenCCReverse: "tw2sp.json",
	}
}

// EffectiveJobs resolves the worker count: 0 means one worker per CPU
func (c *Config) EffectiveJobs() int {
	if c.Jobs <= 0 {
		return runtime.NumCPU()
	}
	return c.Jobs
}

// Validate rejects configurations the runner cannot execute. All
// violations are ErrConfig and fatal before any file work.
func (c *Config) Validate() error {
	if c.Dictionary == "" {
		return errors.Errorf("%w: dictionary path is required", ErrConfig)
	}
	if _, err := os.Stat(c.Dictionary); err != nil {
		return errors.Errorf("%w: dictionary %s: %w", ErrConfig, c.Dictionary, err)
	}
	if c.Jobs < 0 {
		return errors.Errorf("%w: jobs must not be negative", ErrConfig)
	}
	if c.InPlace && c.OutDir != "" {
		return errors.Errorf("%w: in-place and out-dir are mutually exclusive", ErrConfig)
	}
	if len(c.Outputs) > 0 && c.InPlace {
		return errors.Errorf("%w: explicit outputs and in-place are mutually exclusive", ErrConfig)
	}
	if len(c.Extensions) == 0 {
		return errors.Errorf("%w: extension allow-list is empty", ErrConfig)
	}
	return nil
}
