package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/parallax/internal/prompt"
	"github.com/lewisedginton/parallax/internal/server"
	"github.com/lewisedginton/parallax/internal/storage"
)

// PromptsCommand returns a command for managing prompt template overrides
func PromptsCommand() *cli.Command {
	return &cli.Command{
		Name:  "prompts",
		Usage: "Prompt template overrides in the configured prompt store",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List templates and whether each is overridden",
				Action: promptsListAction,
			},
			{
				Name:      "show",
				Usage:     "Print the effective text of a template",
				ArgsUsage: "<template>",
				Action:    promptsShowAction,
			},
			{
				Name:      "push",
				Usage:     "Validate and store an override for a template",
				ArgsUsage: "<template>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Template file to upload, or - for stdin",
						Required: true,
					},
				},
				Action: promptsPushAction,
			},
			{
				Name:      "delete",
				Usage:     "Remove an override, restoring the built-in template",
				ArgsUsage: "<template>",
				Action:    promptsDeleteAction,
			},
		},
	}
}

func promptManager(ctx *cli.Context) (*prompt.Manager, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	manager, err := storage.New(ctx.Context, cfg.PromptStorage.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open prompt storage: %w", err)
	}
	return prompt.NewManager(manager.Namespace(server.PromptNamespace), configuredLogger(cfg)), nil
}

func templateArg(ctx *cli.Context) (string, error) {
	name := ctx.Args().First()
	if !slices.Contains(prompt.TemplateNames, name) {
		return "", fmt.Errorf("template must be one of %v, got %q", prompt.TemplateNames, name)
	}
	return name, nil
}

func promptsListAction(ctx *cli.Context) error {
	manager, err := promptManager(ctx)
	if err != nil {
		return err
	}
	overrides, err := manager.Overrides(ctx.Context)
	if err != nil {
		return err
	}
	for _, name := range prompt.TemplateNames {
		source := "default"
		if slices.Contains(overrides, name) {
			source = "override"
		}
		_, _ = fmt.Fprintf(ctx.App.Writer, "%s\t%s\n", name, source)
	}
	return nil
}

func promptsShowAction(ctx *cli.Context) error {
	name, err := templateArg(ctx)
	if err != nil {
		return err
	}
	manager, err := promptManager(ctx)
	if err != nil {
		return err
	}
	text, _, err := manager.Template(ctx.Context, name)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(ctx.App.Writer, text)
	return nil
}

func promptsPushAction(ctx *cli.Context) error {
	name, err := templateArg(ctx)
	if err != nil {
		return err
	}
	text, err := readTemplateFile(ctx, ctx.String("file"))
	if err != nil {
		return err
	}
	manager, err := promptManager(ctx)
	if err != nil {
		return err
	}
	if err := manager.Push(ctx.Context, name, text); err != nil {
		return fmt.Errorf("override rejected: %w", err)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "Stored override for %s\n", name)
	return nil
}

func promptsDeleteAction(ctx *cli.Context) error {
	name, err := templateArg(ctx)
	if err != nil {
		return err
	}
	manager, err := promptManager(ctx)
	if err != nil {
		return err
	}
	if err := manager.Reset(ctx.Context, name); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "Removed override for %s\n", name)
	return nil
}

func readTemplateFile(ctx *cli.Context, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		if ctx.App.Reader == nil {
			return "", errors.New("no stdin available")
		}
		data, err = io.ReadAll(ctx.App.Reader)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // G304: operator-supplied path
	}
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}
