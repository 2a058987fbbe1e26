package variant

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/minazuki-dev/zhconv/pkg/dict"
	"gitlab.com/tozd/go/errors"
)

// ErrDependencyUnavailable is returned when the external conversion
// tool cannot be found. It is checked once at startup, never per file.
var ErrDependencyUnavailable = errors.Base("conversion tool unavailable")

// Converter turns text from one script variant into the other. It must
// be deterministic and side-effect free as far as callers can observe.
type Converter interface {
	Convert(ctx context.Context, text string, direction dict.Direction) (string, error)
}

// Func adapts a plain function into a Converter
type Func func(ctx context.Context, text string, direction dict.Direction) (string, error)

// Convert implements Converter
func (f Func) Convert(ctx context.Context, text string, direction dict.Direction) (string, error) {
	return f(ctx, text, direction)
}

// OpenCC shells out to the opencc binary for the bulk script
// conversion. The dictionary layer on top of it handles terms the
// generic conversion gets wrong.
type OpenCC struct {
	bin           string
	forwardConfig string
	reverseConfig string
}

// OpenCCOption customizes an OpenCC converter
type OpenCCOption func(*OpenCC)

// WithConfigs overrides the opencc conversion configs used for the
// forward and reverse directions
func WithConfigs(forward, reverse string) OpenCCOption {
	return func(o *OpenCC) {
		o.forwardConfig = forward
		o.reverseConfig = reverse
	}
}

// NewOpenCC locates the opencc binary on PATH. Returns
// ErrDependencyUnavailable if it is missing so callers can abort
// before touching any file.
func NewOpenCC(opts ...OpenCCOption) (*OpenCC, error) {
	bin, err := exec.LookPath("opencc")
	if err != nil {
		return nil, errors.Errorf("%w: opencc not found on PATH: %w", ErrDependencyUnavailable, err)
	}

	o := &OpenCC{
		bin:           bin,
		forwardConfig: "s2twp.json",
		reverseConfig: "tw2sp.json",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Convert implements Converter by piping text through opencc
func (o *OpenCC) Convert(ctx context.Context, text string, direction dict.Direction) (string, error) {
	config := o.forwardConfig
	if direction == dict.Reverse {
		config = o.reverseConfig
	}

	cmd := exec.CommandContext(ctx, o.bin, "-c", config)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.Errorf("running opencc -c %s: %s: %w", config, strings.TrimSpace(stderr.String()), err)
	}

	// opencc appends a trailing newline the input did not have
	out := stdout.String()
	if !strings.HasSuffix(text, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out, nil
}
