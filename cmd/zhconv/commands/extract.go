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

// NewExtractCmd creates the extract command
func NewExtractCmd(opts *opts.RootOpts) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "extract <card.png>",
		Short: "Pull the embedded JSON out of a character card",
		Long: `Extract scans a PNG's text chunks for one holding base64-encoded
JSON, decodes it, and writes the payload as pretty-printed JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardPath := args[0]

			meta, err := card.Extract(cardPath)
			if err != nil {
				return errors.Errorf("extracting %s: %w", cardPath, err)
			}

			out := outputPath
			if out == "" {
				out = strings.TrimSuffix(cardPath, filepath.Ext(cardPath)) + ".json"
			}

			data, err := json.MarshalIndent(meta.Payload, "", "  ")
			if err != nil {
				return errors.Errorf("encoding payload: %w", err)
			}
			if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
				return errors.Errorf("writing %s: %w", out, err)
			}

			fmt.Fprintf(opts.Console, "extracted %q metadata to %s\n", meta.Key, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output JSON path (default: card name with .json)")

	return cmd
}
