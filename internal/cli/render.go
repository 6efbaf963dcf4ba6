package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdflow/pkg/pipeline"
)

// renderOpts holds the command-line flags of the render command.
type renderOpts struct {
	output   string   // base path of the output files
	formats  []string // svg, png, dot, json
	sizes    string   // measured node sizes
	detailed bool     // column types and key markers
}

// renderCommand creates the render command for static exports.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var ro renderOpts
	var flags pipeline.Options

	cmd := &cobra.Command{
		Use:   "render [schema.json|schema.yaml]",
		Short: "Render a schema diagram to SVG, PNG, DOT or JSON",
		Long: `Render a schema diagram to SVG, PNG, DOT or JSON.

Tables are drawn by graphviz at the positions computed by the layout engine,
so the picture matches 'erdflow layout' exactly. Several formats can be
written at once with -f svg,png.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ro.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(ro.formats); err != nil {
				return err
			}
			opts, err := c.options(flags)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], ro, opts)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output base path (default: input without extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output formats, comma separated: svg (default), png, dot, json")
	cmd.Flags().StringVar(&ro.sizes, "sizes", "", "measured node sizes (JSON)")
	cmd.Flags().BoolVar(&ro.detailed, "detailed", false, "show column types and key markers")
	addLayoutFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, ro renderOpts, opts pipeline.Options) error {
	res, err := c.execute(ctx, input, ro.sizes, opts)
	if err != nil {
		return err
	}

	artifacts, err := pipeline.Render(ctx, res.Diagram, ro.formats, pipeline.RenderOptions{
		Detailed: ro.detailed,
		Fallback: opts.FallbackSize(),
	})
	if err != nil {
		return err
	}

	base := ro.output
	if base == "" {
		base = outputBase(input)
	}
	var written []string
	for _, format := range ro.formats {
		path := base + "." + format
		if len(ro.formats) == 1 && ro.output != "" {
			path = ro.output
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		c.Logger.Debug("wrote artifact", "format", format, "bytes", len(artifacts[format]))
		written = append(written, path)
	}

	printSuccess("Rendered %d tables", res.Stats.NodeCount)
	for _, p := range written {
		printFile(p)
	}
	printStats(res.Stats, res.Stats.Cached)
	printDiagnostics(res.Diagnostics)
	return nil
}
