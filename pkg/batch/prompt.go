package batch

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// Decision is the user's answer at the confirmation gate
type Decision int

const (
	DecisionNo Decision = iota
	DecisionYes
	DecisionBackupYes
)

// Prompter asks the user to confirm a destructive batch before any
// file is mutated
type Prompter interface {
	Confirm(ctx context.Context, preview []string, total int) (Decision, error)
}

// PrompterFunc adapts a function into a Prompter
type PrompterFunc func(ctx context.Context, preview []string, total int) (Decision, error)

// Confirm implements Prompter
func (f PrompterFunc) Confirm(ctx context.Context, preview []string, total int) (Decision, error) {
	return f(ctx, preview, total)
}

// 💬 TerminalPrompter implements Prompter with an interactive select
type TerminalPrompter struct{}

const (
	answerYes       = "yes"
	answerNo        = "no"
	answerBackupYes = "backup first, then yes"
)

// Confirm shows the bounded preview and blocks on a yes/no/backup
// answer
func (TerminalPrompter) Confirm(_ context.Context, preview []string, total int) (Decision, error) {
	pterm.DefaultSection.Println("Planned changes")
	for _, line := range preview {
		pterm.Println("  " + line)
	}
	if total > len(preview) {
		pterm.Printfln("  … and %d more", total-len(preview))
	}
	pterm.Println()

	answer, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{answerYes, answerNo, answerBackupYes}).
		WithDefaultOption(answerNo).
		Show(fmt.Sprintf("Rewrite %d files in place?", total))
	if err != nil {
		return DecisionNo, errors.Errorf("reading confirmation: %w", err)
	}

	switch answer {
	case answerYes:
		return DecisionYes, nil
	case answerBackupYes:
		return DecisionBackupYes, nil
	default:
		return DecisionNo, nil
	}
}
