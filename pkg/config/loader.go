package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/minazuki-dev/zhconv/pkg/dict"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// FileConfig is what a .zhconvrc may set. Anything left at the zero
// value defers to the built-in default or a flag.
type FileConfig struct {
	Direction         string   `json:"direction" yaml:"direction" hcl:"direction,optional"`
	Dictionary        string   `json:"dictionary" yaml:"dictionary" hcl:"dictionary,optional"`
	ExtraDictionaries []string `json:"extra_dictionaries" yaml:"extra_dictionaries" hcl:"extra_dictionaries,optional"`
	Blacklist         []string `json:"blacklist" yaml:"blacklist" hcl:"blacklist,optional"`
	Extensions        []string `json:"extensions" yaml:"extensions" hcl:"extensions,optional"`
	Jobs              *int     `json:"jobs" yaml:"jobs" hcl:"jobs,optional"`
	Backup            *bool    `json:"backup" yaml:"backup" hcl:"backup,optional"`
	RespectGitignore  *bool    `json:"respect_gitignore" yaml:"respect_gitignore" hcl:"respect_gitignore,optional"`
	Unify             *bool    `json:"unify" yaml:"unify" hcl:"unify,optional"`
	OpenCCForward     string   `json:"opencc_forward" yaml:"opencc_forward" hcl:"opencc_forward,optional"`
	OpenCCReverse     string   `json:"opencc_reverse" yaml:"opencc_reverse" hcl:"opencc_reverse,optional"`
}

// LoadFile loads a configuration file. The format follows the
// extension: .json, .yaml/.yml or .hcl; a bare .zhconvrc is tried as
// YAML first and HCL second.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("%w: reading config file: %w", ErrConfig, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	base := filepath.Base(path)

	if base == ".zhconvrc" || ext == ".zhconvrc" {
		if cfg, yerr := loadYAML(data); yerr == nil {
			return cfg, nil
		}
		cfg, herr := loadHCL(data, path)
		if herr == nil {
			return cfg, nil
		}
		return nil, errors.Errorf("%w: parsing %s as YAML or HCL: %w", ErrConfig, path, herr)
	}

	var cfg *FileConfig
	switch ext {
	case ".json":
		cfg, err = loadJSON(data)
	case ".yaml", ".yml":
		cfg, err = loadYAML(data)
	case ".hcl":
		cfg, err = loadHCL(data, path)
	default:
		return nil, errors.Errorf("%w: unsupported config extension %q", ErrConfig, ext)
	}
	if err != nil {
		return nil, errors.Errorf("%w: parsing %s: %w", ErrConfig, path, err)
	}
	return cfg, nil
}

// Apply copies the file's set values onto cfg
func (f *FileConfig) Apply(cfg *Config) error {
	switch f.Direction {
	case "":
	case "s2t", "forward":
		cfg.Direction = dict.Forward
	case "t2s", "reverse":
		cfg.Direction = dict.Reverse
	default:
		return errors.Errorf("%w: unknown direction %q", ErrConfig, f.Direction)
	}

	if f.Dictionary != "" {
		cfg.Dictionary = f.Dictionary
	}
	if len(f.ExtraDictionaries) > 0 {
		cfg.ExtraDictionaries = f.ExtraDictionaries
	}
	if len(f.Blacklist) > 0 {
		cfg.Blacklist = f.Blacklist
	}
	if len(f.Extensions) > 0 {
		cfg.Extensions = f.Extensions
	}
	if f.Jobs != nil {
		cfg.Jobs = *f.Jobs
	}
	if f.Backup != nil {
		cfg.Backup = *f.Backup
	}
	if f.RespectGitignore != nil {
		cfg.RespectGitignore = *f.RespectGitignore
	}
	if f.Unify != nil {
		cfg.Unify = *f.Unify
	}
	if f.OpenCCForward != "" {
		cfg.OpenCCForward = f.OpenCCForward
	}
	if f.OpenCCReverse != "" {
		cfg.OpenCCReverse = f.OpenCCReverse
	}
	return nil
}

func loadJSON(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &cfg, nil
}

func loadYAML(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

func loadHCL(data []byte, filename string) (*FileConfig, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg FileConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &cfg, nil
}
