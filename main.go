package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/hpp2puml/internal/config"
	"github.com/phobologic/hpp2puml/internal/diagram"
	"github.com/phobologic/hpp2puml/internal/discover"
	"github.com/phobologic/hpp2puml/internal/logging"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "hpp2puml",
		Short: "Generate a PlantUML class diagram from C++ headers",
		Long: `hpp2puml parses C++ header files and writes a PlantUML class diagram of the
classes, structs, unions and enums they declare, together with inheritance,
aggregation, composition, nesting and (optionally) dependency relationships.

Input patterns may be files, directories, shell globs or "**" globs.`,
		Example: `  hpp2puml -i include/foo.h -i include/bar.h
  hpp2puml -i 'src/**/*.hpp' -x 'src/third_party/' -o classes.puml
  hpp2puml -i include -d -t custom.puml.tmpl`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, configPath, stderr)
			if err != nil {
				return err
			}
			out, err := generate(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			if cfg.OutputFile == "" {
				_, err := io.WriteString(stdout, out)
				return errors.WithStack(err)
			}
			if err := writeAtomic(cfg.OutputFile, out); err != nil {
				return err
			}
			success(stderr, "wrote diagram to %s\n", cfg.OutputFile)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("hpp2puml {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringSliceP("input-file", "i", nil, "input file, directory or glob (repeatable)")
	flags.StringSliceP("exclude", "x", nil, "exclude paths matching this gitignore pattern (repeatable)")
	flags.StringP("template-file", "t", "", "template overriding blocks of the built-in template")
	flags.BoolP("enable-dependency", "d", false, "include dependency relationships from method parameters")
	flags.Bool("strict", false, "fail on C++ syntax errors instead of warning")
	flags.String("log-level", config.LogLevelInfo, "log level: debug, info, warn or error")
	flags.StringVar(&configPath, "config", "", "config file (default "+config.DefaultFile+" if present)")
	root.Flags().StringP("output-file", "o", "", "write the diagram to this file instead of stdout")

	root.AddCommand(newVersionCmd(stdout))
	root.AddCommand(newEmbedCmd(stdout, stderr, &configPath))
	return root
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(stdout, "hpp2puml %s\n", version)
		},
	}
}

// setup loads the configuration for cmd and builds the logger it asks for.
func setup(cmd *cobra.Command, configPath string, stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(stderr, cfg.SlogLevel())
	logger.Debug("loaded configuration",
		"inputs", cfg.InputFiles,
		"exclude", cfg.Exclude,
		"dependency", cfg.EnableDependency,
		"strict", cfg.Strict)
	return cfg, logger, nil
}

// generate expands the configured inputs and renders their diagram.
func generate(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, error) {
	paths, err := discover.Expand(cfg.InputFiles, cfg.Exclude)
	if err != nil {
		return "", err
	}
	logger.Info("parsing headers", "files", len(paths))

	d := diagram.New(
		diagram.WithDependencies(cfg.EnableDependency),
		diagram.WithStrict(cfg.Strict),
		diagram.WithTemplateFile(cfg.TemplateFile),
		diagram.WithLogger(logger),
	)
	if err := d.CreateFromFileList(ctx, paths); err != nil {
		return "", err
	}
	return d.RenderString()
}

// writeAtomic writes content to a temporary file next to path and renames
// it into place, so path is either untouched or complete.
func writeAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return errors.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec
		return errors.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func success(w io.Writer, format string, args ...any) {
	_, _ = color.New(color.FgGreen).Fprintf(w, format, args...)
}
