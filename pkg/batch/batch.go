package batch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/minazuki-dev/zhconv/pkg/config"
	"github.com/minazuki-dev/zhconv/pkg/dict"
	"github.com/minazuki-dev/zhconv/pkg/engine"
	"github.com/minazuki-dev/zhconv/pkg/pathname"
	"github.com/minazuki-dev/zhconv/pkg/status"
	"github.com/minazuki-dev/zhconv/pkg/variant"
	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// ErrAborted is returned when the user declines the confirmation gate
var ErrAborted = errors.Base("aborted by user")

// errFailFast stops the worker pool after the first failure when
// keep-going is off
var errFailFast = errors.Base("stopping after failure")

// 🏃 Runner discovers candidate files and fans the work out over the
// transform engine
type Runner struct {
	cfg       *config.Config
	rules     *dict.RuleSet
	converter variant.Converter
	reporter  *status.Reporter
	prompter  Prompter
}

// New creates a Runner. The rule set and converter are shared
// read-only with every worker.
func New(cfg *config.Config, rules *dict.RuleSet, converter variant.Converter, reporter *status.Reporter, prompter Prompter) *Runner {
	return &Runner{
		cfg:       cfg,
		rules:     rules,
		converter: converter,
		reporter:  reporter,
		prompter:  prompter,
	}
}

// plan is the result of discovery: work to do, outcomes already
// decided during the walk (skips and name-derivation failures), and
// the directories eligible for the rename post-pass
type plan struct {
	tasks       []engine.Task
	preResolved []engine.Outcome
	dirs        []string
}

// Run executes the batch over the given roots (files, directories, or
// none for the current directory) and returns the aggregated summary.
func (r *Runner) Run(ctx context.Context, roots []string) (status.Summary, error) {
	logger := zerolog.Ctx(ctx)

	namer := pathname.New(r.rules, r.converter, r.cfg.Unify, !r.cfg.InPlace)

	p, err := r.discover(ctx, namer, roots)
	if err != nil {
		return status.Summary{}, err
	}
	logger.Debug().Int("tasks", len(p.tasks)).Int("pre_resolved", len(p.preResolved)).Msg("discovery complete")

	backup := r.cfg.Backup
	if r.needsConfirmation() {
		decision, err := r.confirm(ctx, namer, p)
		if err != nil {
			return status.Summary{}, err
		}
		switch decision {
		case DecisionNo:
			return status.Summary{}, errors.WithStack(ErrAborted)
		case DecisionBackupYes:
			backup = true
		}
	}

	eng := engine.New(r.rules, r.converter, namer, engine.Options{
		InPlace: r.cfg.InPlace,
		Backup:  backup,
		DryRun:  r.cfg.DryRun,
	})

	r.reporter.Start(len(p.tasks) + len(p.preResolved))

	// failures found during discovery honor keep-going the same way
	// failures inside the worker pool do
	failedEarly := false
	for _, outcome := range p.preResolved {
		r.reporter.Record(outcome)
		if outcome.Status == engine.StatusFailed && !r.cfg.KeepGoing {
			failedEarly = true
			break
		}
	}

	if !failedEarly {
		if err := r.execute(ctx, eng, p.tasks); err != nil && !errors.Is(err, errFailFast) {
			return r.reporter.Summary(), err
		}
	}

	summary := r.reporter.Summary()

	if r.cfg.InPlace && r.cfg.Recursive && !r.cfg.DryRun && (summary.Ok() || r.cfg.KeepGoing) {
		if err := r.renameDirectories(ctx, namer, p.dirs); err != nil {
			return summary, err
		}
	}

	return r.reporter.Summary(), nil
}

// needsConfirmation gates destructive recursive in-place runs behind
// an explicit answer
func (r *Runner) needsConfirmation() bool {
	return r.cfg.InPlace && r.cfg.Recursive && !r.cfg.Force && !r.cfg.DryRun
}

// confirm shows a bounded preview of planned changes and blocks on
// the user's answer
func (r *Runner) confirm(ctx context.Context, namer *pathname.Namer, p *plan) (Decision, error) {
	const previewLimit = 10

	preview := make([]string, 0, previewLimit)
	for _, task := range p.tasks {
		if len(preview) == previewLimit {
			break
		}
		out := task.OutputOverride
		if out == "" {
			derived, err := namer.Derive(ctx, task.InputPath)
			if err != nil {
				return DecisionNo, err
			}
			out = derived
		}
		preview = append(preview, task.InputPath+" → "+out)
	}

	return r.prompter.Confirm(ctx, preview, len(p.tasks))
}

// execute runs the tasks either sequentially or across a bounded
// worker pool. Tasks share only read-only state; the reporter is the
// single synchronized sink.
func (r *Runner) execute(ctx context.Context, eng *engine.Engine, tasks []engine.Task) error {
	jobs := r.cfg.EffectiveJobs()

	if jobs == 1 {
		for _, task := range tasks {
			outcome := eng.Process(ctx, task)
			r.reporter.Record(outcome)
			if outcome.Status == engine.StatusFailed && !r.cfg.KeepGoing {
				return errors.WithStack(errFailFast)
			}
		}
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(jobs)
	for _, task := range tasks {
		task := task
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}
			outcome := eng.Process(groupCtx, task)
			r.reporter.Record(outcome)
			if outcome.Status == engine.StatusFailed && !r.cfg.KeepGoing {
				return errors.WithStack(errFailFast)
			}
			return nil
		})
	}
	return group.Wait()
}

// discover expands roots into concrete tasks
func (r *Runner) discover(ctx context.Context, namer *pathname.Namer, roots []string) (*plan, error) {
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var files, dirs []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.Errorf("%w: input %s: %w", config.ErrConfig, root, err)
		}
		if info.IsDir() {
			dirs = append(dirs, root)
		} else {
			files = append(files, root)
		}
	}

	if len(r.cfg.Outputs) > 0 {
		if len(dirs) > 0 {
			return nil, errors.Errorf("%w: explicit outputs require explicit file inputs", config.ErrConfig)
		}
		if len(r.cfg.Outputs) != len(files) {
			return nil, errors.Errorf("%w: %d outputs for %d inputs", config.ErrConfig, len(r.cfg.Outputs), len(files))
		}
	}

	p := &plan{}

	// explicit files are taken verbatim, no skip heuristics
	for i, file := range files {
		override := ""
		if len(r.cfg.Outputs) > 0 {
			override = r.cfg.Outputs[i]
		}
		p.tasks = append(p.tasks, engine.NewTask(file, override))
	}

	for _, dir := range dirs {
		if err := r.discoverDir(ctx, namer, dir, p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// discoverDir walks one directory root, applying the allow-list, the
// blacklist, and optionally the root's .gitignore
func (r *Runner) discoverDir(ctx context.Context, namer *pathname.Namer, root string, p *plan) error {
	var matcher *ignore.GitIgnore
	if r.cfg.RespectGitignore {
		if m, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			matcher = m
		}
	}

	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return errors.Errorf("walking %s: %w", path, err)
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = path
		}

		if entry.IsDir() {
			if path == root {
				return nil
			}
			if entry.Name() == ".git" || strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			if !r.cfg.Recursive {
				return filepath.SkipDir
			}
			if r.blacklisted(entry.Name(), rel) {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel) {
				return filepath.SkipDir
			}
			p.dirs = append(p.dirs, path)
			return nil
		}

		if !r.allowedExt(path) || strings.HasPrefix(entry.Name(), ".") || strings.HasSuffix(path, ".bak") {
			return nil
		}
		if r.blacklisted(entry.Name(), rel) {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		// outputs of a previous run are not candidates
		if namer.HasTargetTag(entry.Name()) {
			return nil
		}

		derived, derr := namer.Derive(ctx, path)
		if derr != nil {
			// a converter failure on one name is a per-file outcome,
			// not a reason to abandon the walk
			p.preResolved = append(p.preResolved, engine.Outcome{
				Path:   path,
				Status: engine.StatusFailed,
				Err:    derr,
			})
			return nil
		}

		task := engine.NewTask(path, "")
		target := derived
		if r.cfg.OutDir != "" {
			target = filepath.Join(r.cfg.OutDir, filepath.Dir(rel), filepath.Base(derived))
			task.OutputOverride = target
		}

		// skip without reading when the file this task would write is
		// already on disk
		if target != path {
			if _, serr := os.Stat(target); serr == nil {
				p.preResolved = append(p.preResolved, engine.Outcome{
					Path:   path,
					Status: engine.StatusSkipped,
					Reason: engine.SkipCounterpartExists,
				})
				return nil
			}
		}

		p.tasks = append(p.tasks, task)
		return nil
	})
}

// allowedExt checks the discovery allow-list
func (r *Runner) allowedExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range r.cfg.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// blacklisted matches a name or root-relative path against the
// configured globs
func (r *Runner) blacklisted(name, rel string) bool {
	for _, pattern := range r.cfg.Blacklist {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, filepath.ToSlash(rel)); err == nil && ok {
			return true
		}
	}
	return false
}

// renameDirectories renames translated directories deepest-first,
// after all file work, so no rename pulls a parent out from under a
// path still being processed.
func (r *Runner) renameDirectories(ctx context.Context, namer *pathname.Namer, dirs []string) error {
	logger := zerolog.Ctx(ctx)

	sorted := append([]string(nil), dirs...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.Count(sorted[i], string(os.PathSeparator)) > strings.Count(sorted[j], string(os.PathSeparator))
	})

	for _, dir := range sorted {
		base := filepath.Base(dir)
		derived, err := namer.DeriveDir(ctx, base)
		if err != nil {
			return errors.Errorf("deriving directory name for %s: %w", dir, err)
		}
		if derived == base {
			continue
		}
		target := filepath.Join(filepath.Dir(dir), derived)
		if _, err := os.Stat(target); err == nil {
			logger.Warn().Str("dir", dir).Str("target", target).Msg("rename target exists, leaving directory as is")
			continue
		}
		if err := os.Rename(dir, target); err != nil {
			return errors.Errorf("renaming directory %s: %w", dir, err)
		}
		logger.Info().Str("dir", dir).Str("target", target).Msg("renamed directory")
	}
	return nil
}
