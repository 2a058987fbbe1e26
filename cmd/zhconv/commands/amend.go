package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minazuki-dev/zhconv/cmd/zhconv/opts"
	"github.com/minazuki-dev/zhconv/pkg/card"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewAmendCmd creates the amend command
func NewAmendCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		outputPath string
		key        string
	)

	cmd := &cobra.Command{
		Use:   "amend <card.png> <data.json>",
		Short: "Merge a JSON payload into a fresh character card",
		Long: `Amend embeds the JSON file into a copy of the PNG, discarding every
pre-existing text chunk first so no stale metadata survives.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardPath, jsonPath := args[0], args[1]

			raw, err := os.ReadFile(jsonPath)
			if err != nil {
				return errors.Errorf("reading %s: %w", jsonPath, err)
			}
			var payload any
			if err := json.Unmarshal(raw, &payload); err != nil {
				return errors.Errorf("parsing %s: %w", jsonPath, err)
			}

			out := outputPath
			if out == "" {
				stem := strings.TrimSuffix(cardPath, filepath.Ext(cardPath))
				out = stem + "-amended.png"
			}

			meta := &card.Metadata{Key: key, Payload: payload}
			if err := card.Embed(cardPath, meta, out, true); err != nil {
				return errors.Errorf("amending %s: %w", cardPath, err)
			}

			fmt.Fprintf(opts.Console, "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output PNG path (default: card name with -amended suffix)")
	cmd.Flags().StringVar(&key, "key", card.DefaultKey, "text-chunk keyword to embed under")

	return cmd
}
