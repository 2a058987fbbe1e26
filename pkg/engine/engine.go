package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/minazuki-dev/zhconv/pkg/card"
	"github.com/minazuki-dev/zhconv/pkg/dict"
	"github.com/minazuki-dev/zhconv/pkg/pathname"
	"github.com/minazuki-dev/zhconv/pkg/variant"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Kind tells the engine how to transform a file
type Kind int

const (
	KindText Kind = iota
	KindCard
)

// KindForPath classifies a file by extension
func KindForPath(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return KindCard
	}
	return KindText
}

// Task is one unit of work. Tasks carry no shared mutable state and
// are safe to process in parallel.
type Task struct {
	InputPath      string
	OutputOverride string
	Kind           Kind
}

// NewTask builds a task for a path, classifying it by extension
func NewTask(inputPath, outputOverride string) Task {
	return Task{
		InputPath:      inputPath,
		OutputOverride: outputOverride,
		Kind:           KindForPath(inputPath),
	}
}

// Status is the terminal state of a processed task
type Status int

const (
	StatusProcessed Status = iota
	StatusSkipped
	StatusFailed
)

// String returns the lowercase status name
func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Skip reasons reported in outcomes
const (
	SkipNoScriptContent   = "no-script-content"
	SkipCounterpartExists = "counterpart-exists"
	SkipNoMetadata        = "no-metadata"
)

// Outcome records what happened to one file. Never mutated after
// creation.
type Outcome struct {
	Path       string
	OutputPath string
	Status     Status
	Reason     string
	Err        error
}

func processed(task Task, outPath, reason string) Outcome {
	return Outcome{Path: task.InputPath, OutputPath: outPath, Status: StatusProcessed, Reason: reason}
}

func skipped(task Task, reason string) Outcome {
	return Outcome{Path: task.InputPath, Status: StatusSkipped, Reason: reason}
}

func failed(task Task, err error) Outcome {
	return Outcome{Path: task.InputPath, Status: StatusFailed, Err: err}
}

// Options controls how the engine writes its results
type Options struct {
	InPlace bool // remove the original after writing a renamed output
	Backup  bool // copy an existing distinct destination to .bak first
	DryRun  bool // report planned actions without touching anything
}

// Engine transforms one file at a time. All fields are read-only after
// construction, so a single Engine is shared across workers.
type Engine struct {
	rules     *dict.RuleSet
	converter variant.Converter
	namer     *pathname.Namer
	opts      Options
}

// New creates an Engine
func New(rules *dict.RuleSet, converter variant.Converter, namer *pathname.Namer, opts Options) *Engine {
	return &Engine{
		rules:     rules,
		converter: converter,
		namer:     namer,
		opts:      opts,
	}
}

// Process runs one task to completion. Every per-file error is caught
// here and folded into the outcome; nothing propagates.
func (e *Engine) Process(ctx context.Context, task Task) Outcome {
	logger := zerolog.Ctx(ctx).With().Str("path", task.InputPath).Logger()

	outPath, err := e.outputPath(ctx, task)
	if err != nil {
		return failed(task, err)
	}
	logger.Debug().Str("output", outPath).Msg("classified")

	var outcome Outcome
	switch task.Kind {
	case KindCard:
		outcome = e.processCard(ctx, task, outPath)
	default:
		outcome = e.processText(ctx, task, outPath)
	}

	switch outcome.Status {
	case StatusProcessed:
		logger.Debug().Str("output", outcome.OutputPath).Msg("written")
	case StatusSkipped:
		logger.Debug().Str("reason", outcome.Reason).Msg("skipped")
	case StatusFailed:
		logger.Debug().Err(outcome.Err).Msg("failed")
	}
	return outcome
}

// outputPath resolves where the transformed file goes
func (e *Engine) outputPath(ctx context.Context, task Task) (string, error) {
	if task.OutputOverride != "" {
		return task.OutputOverride, nil
	}
	return e.namer.Derive(ctx, task.InputPath)
}

// renames reports whether the output sits at a different base name
func renames(task Task, outPath string) bool {
	return filepath.Base(outPath) != filepath.Base(task.InputPath)
}

// processText transforms a plain text file
func (e *Engine) processText(ctx context.Context, task Task, outPath string) Outcome {
	// the whole file is read before any write begins, which is what
	// makes overwriting the input itself safe
	content, err := os.ReadFile(task.InputPath)
	if err != nil {
		return failed(task, errors.Errorf("reading %s: %w", task.InputPath, err))
	}

	text := string(content)
	transformed, err := variant.Transform(ctx, text, e.rules, e.converter)
	if err != nil {
		return failed(task, errors.Errorf("transforming %s: %w", task.InputPath, err))
	}

	// the skip decision compares the transformed text against the
	// original rather than consulting a character table, so any
	// character the converter or dictionary would change counts
	if transformed == text && !renames(task, outPath) {
		return skipped(task, SkipNoScriptContent)
	}

	return e.write(task, outPath, []byte(transformed))
}

// processCard transforms the JSON payload embedded in a character card
func (e *Engine) processCard(ctx context.Context, task Task, outPath string) Outcome {
	src, err := os.ReadFile(task.InputPath)
	if err != nil {
		return failed(task, errors.Errorf("reading %s: %w", task.InputPath, err))
	}

	meta, err := card.ExtractBytes(src)
	if err != nil {
		if errors.Is(err, card.ErrNoMetadata) {
			return skipped(task, SkipNoMetadata)
		}
		return failed(task, errors.Errorf("extracting metadata from %s: %w", task.InputPath, err))
	}

	payload, err := variant.TransformValue(ctx, meta.Payload, e.rules, e.converter)
	if err != nil {
		return failed(task, errors.Errorf("transforming metadata of %s: %w", task.InputPath, err))
	}

	if reflect.DeepEqual(payload, meta.Payload) && !renames(task, outPath) {
		return skipped(task, SkipNoScriptContent)
	}

	out, err := card.EmbedBytes(src, &card.Metadata{Key: meta.Key, Payload: payload}, false)
	if err != nil {
		return failed(task, errors.Errorf("embedding metadata for %s: %w", task.InputPath, err))
	}

	return e.write(task, outPath, out)
}

// write lands content at outPath through a temp file and an atomic
// rename, honoring dry-run, backup and in-place semantics
func (e *Engine) write(task Task, outPath string, content []byte) Outcome {
	if e.opts.DryRun {
		return processed(task, outPath, "dry-run")
	}

	inInfo, err := os.Stat(task.InputPath)
	if err != nil {
		return failed(task, errors.Errorf("stat %s: %w", task.InputPath, err))
	}

	selfOverwrite := false
	if outInfo, err := os.Stat(outPath); err == nil {
		if os.SameFile(inInfo, outInfo) {
			selfOverwrite = true
		} else if e.opts.Backup {
			if err := copyFile(outPath, outPath+".bak"); err != nil {
				return failed(task, errors.Errorf("backing up %s: %w", outPath, err))
			}
		}
	}

	if err := writeAtomic(outPath, content, inInfo.Mode().Perm()); err != nil {
		return failed(task, err)
	}

	// in-place runs retire the original once the renamed output is in
	// place; a self-overwrite already replaced it
	if e.opts.InPlace && !selfOverwrite && renames(task, outPath) {
		if err := os.Remove(task.InputPath); err != nil {
			return failed(task, errors.Errorf("removing original %s: %w", task.InputPath, err))
		}
	}

	return processed(task, outPath, "")
}

// writeAtomic writes content to a temp file in the destination's
// directory, then renames it into place. A crash mid-write never
// leaves a half-written destination.
func writeAtomic(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".zhconv-*")
	if err != nil {
		return errors.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("renaming into place: %w", err)
	}
	return nil
}

// copyFile duplicates src to dst, used for .bak backups
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Errorf("copying to %s: %w", dst, err)
	}
	return out.Sync()
}
