package batch_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minazuki-dev/zhconv/pkg/batch"
	"github.com/minazuki-dev/zhconv/pkg/config"
	"github.com/minazuki-dev/zhconv/pkg/dict"
	"github.com/minazuki-dev/zhconv/pkg/status"
	"github.com/minazuki-dev/zhconv/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// charSwap stands in for opencc: it converts 这/這 and leaves
// dictionary terms to the rule set
var charSwap = variant.Func(func(_ context.Context, text string, direction dict.Direction) (string, error) {
	if direction == dict.Reverse {
		return strings.ReplaceAll(text, "這", "这"), nil
	}
	return strings.ReplaceAll(text, "这", "這"), nil
})

// alwaysYes auto-confirms destructive runs in tests
var alwaysYes = batch.PrompterFunc(func(_ context.Context, _ []string, _ int) (batch.Decision, error) {
	return batch.DecisionYes, nil
})

func forwardRules(t *testing.T) *dict.RuleSet {
	t.Helper()
	return dict.Compile([]dict.Rule{{Source: "服务器", Target: "伺服器"}}, dict.Forward)
}

func newRunner(t *testing.T, cfg *config.Config) (*batch.Runner, *status.Reporter) {
	t.Helper()
	reporter := status.NewReporter(io.Discard)
	return batch.New(cfg, forwardRules(t), charSwap, reporter, alwaysYes), reporter
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Jobs = 1
	cfg.Recursive = true
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunAutoDiscovery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "server-zh_CN.txt"), "这是服务器")

	runner, _ := newRunner(t, testConfig(t))
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, "這是伺服器", readFile(t, filepath.Join(dir, "server-zh_TW.txt")))
	// original untouched
	assert.Equal(t, "这是服务器", readFile(t, filepath.Join(dir, "server-zh_CN.txt")))
}

func TestRunSkipsWhenCounterpartExists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "server-zh_CN.txt"), "这是服务器")
	writeFile(t, filepath.Join(dir, "server-zh_TW.txt"), "這是伺服器")

	runner, _ := newRunner(t, testConfig(t))
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
}

func TestRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "server-zh_CN.txt"), "这是服务器")
	writeFile(t, filepath.Join(dir, "notes.txt"), "这是笔记")

	runner, _ := newRunner(t, testConfig(t))
	first, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Processed)

	runner2, _ := newRunner(t, testConfig(t))
	second, err := runner2.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	// every candidate's counterpart already exists, so the second run
	// writes nothing
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 0, second.Failed)
}

func TestRunExplicitFileMissing(t *testing.T) {
	runner, _ := newRunner(t, testConfig(t))
	_, err := runner.Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope.txt")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfig))
}

func TestRunExplicitOutputs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.txt")
	output := filepath.Join(dir, "custom.txt")
	writeFile(t, input, "这是")

	cfg := testConfig(t)
	cfg.Outputs = []string{output}
	runner, _ := newRunner(t, cfg)
	summary, err := runner.Run(context.Background(), []string{input})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "這是", readFile(t, output))
}

func TestRunOutputCountMismatch(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.txt")
	writeFile(t, input, "这是")

	cfg := testConfig(t)
	cfg.Outputs = []string{"x.txt", "y.txt"}
	runner, _ := newRunner(t, cfg)
	_, err := runner.Run(context.Background(), []string{input})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfig))
}

func TestRunBlacklist(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.txt"), "这是")
	writeFile(t, filepath.Join(dir, "skip.txt"), "这是")

	cfg := testConfig(t)
	cfg.Blacklist = []string{"skip.*"}
	runner, _ := newRunner(t, cfg)
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	_, err = os.Stat(filepath.Join(dir, "skip-TW.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunRespectsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "ignored.txt\n")
	writeFile(t, filepath.Join(dir, "ignored.txt"), "这是")
	writeFile(t, filepath.Join(dir, "kept.txt"), "这是")

	cfg := testConfig(t)
	cfg.RespectGitignore = true
	runner, _ := newRunner(t, cfg)
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
}

func TestRunNonRecursiveStaysShallow(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFile(t, filepath.Join(dir, "top.txt"), "这是")
	writeFile(t, filepath.Join(sub, "deep.txt"), "这是")

	cfg := testConfig(t)
	cfg.Recursive = false
	runner, _ := newRunner(t, cfg)
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
}

func TestRunCopyModeTranslatesDirectories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "docs-zh_CN")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFile(t, filepath.Join(sub, "a.txt"), "这是")

	runner, _ := newRunner(t, testConfig(t))
	summary, err := runner.Run(context.Background(), []string{root})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.FileExists(t, filepath.Join(root, "docs-zh_TW", "a-TW.txt"))
	// copies never disturb the originals
	assert.Equal(t, "这是", readFile(t, filepath.Join(sub, "a.txt")))
	assert.DirExists(t, sub)
}

func TestRunOutDirIdempotent(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "converted")
	writeFile(t, filepath.Join(src, "a.txt"), "这是")

	cfg := testConfig(t)
	cfg.OutDir = out
	runner, _ := newRunner(t, cfg)
	summary, err := runner.Run(context.Background(), []string{src})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "這是", readFile(t, filepath.Join(out, "a-TW.txt")))

	// the second pass sees the out-dir copy and has nothing left to do
	cfg = testConfig(t)
	cfg.OutDir = out
	runner, _ = newRunner(t, cfg)
	summary, err = runner.Run(context.Background(), []string{src})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRunParallelSummary(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 32; i++ {
		writeFile(t, filepath.Join(dir, "f"+string(rune('a'+i%26))+string(rune('0'+i/26))+".txt"), "这是第几个")
	}

	cfg := testConfig(t)
	cfg.Jobs = 8
	runner, _ := newRunner(t, cfg)
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 32, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
}

// failsOnContent converts file names fine but errors on file content,
// so failures surface inside the worker pool rather than at discovery
var failsOnContent = variant.Func(func(_ context.Context, text string, _ dict.Direction) (string, error) {
	if strings.Contains(text, "这") {
		return "", errors.New("converter exploded")
	}
	return text, nil
})

func TestRunFailFastStopsBatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "这是")
	writeFile(t, filepath.Join(dir, "b.txt"), "这是")

	cfg := testConfig(t)
	reporter := status.NewReporter(io.Discard)
	runner := batch.New(cfg, forwardRules(t), failsOnContent, reporter, alwaysYes)
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Processed)
	require.Len(t, summary.Failures, 1)
}

func TestRunKeepGoingRecordsAllFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "这是")
	writeFile(t, filepath.Join(dir, "b.txt"), "这是")

	cfg := testConfig(t)
	cfg.KeepGoing = true
	reporter := status.NewReporter(io.Discard)
	runner := batch.New(cfg, forwardRules(t), failsOnContent, reporter, alwaysYes)
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Failures, 2)
}

func TestRunNameDerivationFailureBecomesOutcome(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "这是")
	writeFile(t, filepath.Join(dir, "b.txt"), "这是")

	// errors on every input, including the name translation during
	// discovery; the run must record failures, not crash
	failing := variant.Func(func(_ context.Context, _ string, _ dict.Direction) (string, error) {
		return "", errors.New("converter exploded")
	})

	cfg := testConfig(t)
	reporter := status.NewReporter(io.Discard)
	runner := batch.New(cfg, forwardRules(t), failing, reporter, alwaysYes)
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Processed)

	cfg = testConfig(t)
	cfg.KeepGoing = true
	reporter = status.NewReporter(io.Discard)
	runner = batch.New(cfg, forwardRules(t), failing, reporter, alwaysYes)
	summary, err = runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Failures, 2)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "这是")

	cfg := testConfig(t)
	cfg.DryRun = true
	runner, _ := newRunner(t, cfg)
	summary, err := runner.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunConfirmationDeclined(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "这是")

	declined := batch.PrompterFunc(func(_ context.Context, preview []string, total int) (batch.Decision, error) {
		assert.Equal(t, 1, total)
		assert.Len(t, preview, 1)
		return batch.DecisionNo, nil
	})

	cfg := testConfig(t)
	cfg.InPlace = true
	reporter := status.NewReporter(io.Discard)
	runner := batch.New(cfg, forwardRules(t), charSwap, reporter, declined)
	_, err := runner.Run(context.Background(), []string{dir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, batch.ErrAborted))

	// nothing was touched
	assert.Equal(t, "这是", readFile(t, filepath.Join(dir, "a.txt")))
}

func TestRunConfirmationBackup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "这是")
	writeFile(t, filepath.Join(dir, "a-TW.txt"), "stale")

	backupYes := batch.PrompterFunc(func(_ context.Context, _ []string, _ int) (batch.Decision, error) {
		return batch.DecisionBackupYes, nil
	})

	cfg := testConfig(t)
	cfg.InPlace = true
	reporter := status.NewReporter(io.Discard)
	runner := batch.New(cfg, forwardRules(t), charSwap, reporter, backupYes)
	summary, err := runner.Run(context.Background(), []string{filepath.Join(dir, "a.txt")})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "stale", readFile(t, filepath.Join(dir, "a-TW.txt.bak")))
	assert.Equal(t, "這是", readFile(t, filepath.Join(dir, "a-TW.txt")))
}

func TestRunInPlaceRenamesDirectories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "docs-zh_CN")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFile(t, filepath.Join(sub, "a.txt"), "这是")

	cfg := testConfig(t)
	cfg.InPlace = true
	cfg.Force = true
	runner, _ := newRunner(t, cfg)
	summary, err := runner.Run(context.Background(), []string{root})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	// the directory itself was renamed after all file work
	assert.DirExists(t, filepath.Join(root, "docs-zh_TW"))
	assert.NoFileExists(t, filepath.Join(sub, "a.txt"))
	assert.FileExists(t, filepath.Join(root, "docs-zh_TW", "a-TW.txt"))
}
