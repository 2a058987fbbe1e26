package main

import (
	"os"

	"github.com/minazuki-dev/zhconv/cmd/zhconv/commands"
	"github.com/minazuki-dev/zhconv/cmd/zhconv/opts"
	"github.com/minazuki-dev/zhconv/pkg/batch"
	"github.com/minazuki-dev/zhconv/pkg/config"
	"github.com/minazuki-dev/zhconv/pkg/dict"
	"github.com/minazuki-dev/zhconv/pkg/status"
	"github.com/minazuki-dev/zhconv/pkg/variant"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// flags bound to the root command
type rootFlags struct {
	reverse          bool
	dictionary       string
	extraDicts       []string
	inPlace          bool
	outDir           string
	outputs          []string
	recursive        bool
	dryRun           bool
	backup           bool
	force            bool
	keepGoing        bool
	jobs             int
	unify            bool
	blacklist        []string
	respectGitignore bool
	configFile       string
	debug            bool
}

// NewRootCmd builds the zhconv command tree
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "zhconv [paths...]",
		Short: "Batch Simplified/Traditional conversion for text files and character cards",
		Long: `zhconv converts text files and character-card PNGs between
Simplified and Traditional Chinese, combining an opencc pass with a
dictionary of term overrides. Directories are scanned for candidate
files; explicit files are taken verbatim.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, flags, args)
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")

	cmd.Flags().BoolVar(&flags.reverse, "t2s", false, "convert Traditional to Simplified (default is s2t)")
	cmd.Flags().StringVar(&flags.dictionary, "dict", "", "primary dictionary file (tab-separated)")
	cmd.Flags().StringArrayVar(&flags.extraDicts, "extra-dict", nil, "extra dictionary file, may repeat; missing files are tolerated")
	cmd.Flags().BoolVar(&flags.inPlace, "in-place", false, "replace originals instead of writing copies")
	cmd.Flags().StringVar(&flags.outDir, "out-dir", "", "write outputs under this directory")
	cmd.Flags().StringArrayVarP(&flags.outputs, "output", "o", nil, "explicit output path per input file, may repeat")
	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", false, "descend into directories")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "report planned actions without writing")
	cmd.Flags().BoolVarP(&flags.backup, "backup", "b", false, "back up existing destinations to .bak before overwrite")
	cmd.Flags().BoolVarP(&flags.force, "force", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVarP(&flags.keepGoing, "keep-going", "k", false, "continue past per-file failures")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0, "parallel workers; 0 means one per CPU, 1 is sequential")
	cmd.Flags().BoolVarP(&flags.unify, "unify", "u", false, "always append the directional suffix to output names")
	cmd.Flags().StringArrayVar(&flags.blacklist, "blacklist", nil, "glob of names to exclude from discovery, may repeat")
	cmd.Flags().BoolVar(&flags.respectGitignore, "respect-gitignore", false, "skip files matched by the root's .gitignore")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "config file (default: .zhconvrc if present)")

	rootOpts := &opts.RootOpts{Console: os.Stdout}
	cmd.AddCommand(commands.NewExtractCmd(rootOpts))
	cmd.AddCommand(commands.NewAmendCmd(rootOpts))

	return cmd
}

// buildConfig merges defaults, the config file, and explicit flags
func buildConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg := config.Default()

	configFile := flags.configFile
	if configFile == "" {
		if _, err := os.Stat(".zhconvrc"); err == nil {
			configFile = ".zhconvrc"
		}
	}
	if configFile != "" {
		fileCfg, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		if err := fileCfg.Apply(cfg); err != nil {
			return nil, err
		}
	}

	if flags.reverse {
		cfg.Direction = dict.Reverse
	}
	if cmd.Flags().Changed("dict") {
		cfg.Dictionary = flags.dictionary
	}
	if cmd.Flags().Changed("extra-dict") {
		cfg.ExtraDictionaries = flags.extraDicts
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Jobs = flags.jobs
	}
	if cmd.Flags().Changed("backup") {
		cfg.Backup = flags.backup
	}
	if cmd.Flags().Changed("unify") {
		cfg.Unify = flags.unify
	}
	if cmd.Flags().Changed("respect-gitignore") {
		cfg.RespectGitignore = flags.respectGitignore
	}
	if len(flags.blacklist) > 0 {
		cfg.Blacklist = append(cfg.Blacklist, flags.blacklist...)
	}

	cfg.InPlace = flags.inPlace
	cfg.OutDir = flags.outDir
	cfg.Outputs = flags.outputs
	cfg.Recursive = flags.recursive
	cfg.DryRun = flags.dryRun
	cfg.Force = flags.force
	cfg.KeepGoing = flags.keepGoing

	return cfg, cfg.Validate()
}

// runBatch wires the run together and executes it
func runBatch(cmd *cobra.Command, flags *rootFlags, args []string) error {
	ctx := cmd.Context()

	level := zerolog.InfoLevel
	if flags.debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	ctx = logger.WithContext(ctx)

	cfg, err := buildConfig(cmd, flags)
	if err != nil {
		return err
	}

	// both fatal error classes surface before any file work: a bad
	// configuration here, a missing converter just below
	converter, err := variant.NewOpenCC(variant.WithConfigs(cfg.OpenCCForward, cfg.OpenCCReverse))
	if err != nil {
		return err
	}

	rules, err := dict.Load(cfg.Dictionary, cfg.ExtraDictionaries, cfg.Direction)
	if err != nil {
		return errors.Errorf("%w: %w", config.ErrConfig, err)
	}
	logger.Debug().Int("rules", rules.Len()).Str("direction", cfg.Direction.String()).Msg("dictionary loaded")

	reporter := status.NewReporter(os.Stdout)
	runner := batch.New(cfg, rules, converter, reporter, batch.TerminalPrompter{})

	summary, err := runner.Run(ctx, args)
	reporter.Finish()
	if err != nil {
		return err
	}

	if !summary.Ok() && !cfg.KeepGoing {
		return errors.Errorf("%d file(s) failed", summary.Failed)
	}
	return nil
}
