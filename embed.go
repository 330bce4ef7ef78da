package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

const (
	sentinelStart = "<!-- hpp2puml:start -->"
	sentinelEnd   = "<!-- hpp2puml:end -->"
)

func newEmbedCmd(stdout, stderr io.Writer, configPath *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "embed [flags] MARKDOWN-FILE",
		Short: "Write the diagram into a Markdown file",
		Long: `Render the diagram and write it into a Markdown file as a plantuml code block.
The block is wrapped in sentinel comments so it can be updated in place on
subsequent runs without touching surrounding content. Creates the file if it
does not exist.`,
		Example:       `  hpp2puml embed -i include docs/ARCHITECTURE.md`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cfg, logger, err := setup(cmd, *configPath, stderr)
			if err != nil {
				return err
			}
			out, err := generate(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			existing, err := os.ReadFile(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return errors.Errorf("reading %s: %w", path, err)
			}
			updated := applySection(string(existing), diagramSection(out))

			if dryRun {
				_, err := io.WriteString(stdout, updated)
				return errors.WithStack(err)
			}
			if err := writeAtomic(path, updated); err != nil {
				return err
			}
			success(stderr, "wrote diagram section to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the updated file without modifying it")
	return cmd
}

// diagramSection wraps a rendered diagram in a fenced block between the
// sentinels.
func diagramSection(diagram string) string {
	if !strings.HasSuffix(diagram, "\n") {
		diagram += "\n"
	}
	return fmt.Sprintf("%s\n```plantuml\n%s```\n%s", sentinelStart, diagram, sentinelEnd)
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
