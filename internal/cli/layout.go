package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/source"
)

// layoutCommand creates the layout command, which writes the positioned
// diagram as JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var output, sizesPath string
	var flags pipeline.Options

	cmd := &cobra.Command{
		Use:   "layout [schema.json|schema.yaml]",
		Short: "Lay out a schema and write the diagram as JSON",
		Long: `Lay out a schema and write the diagram as JSON.

The diagram lists every table as a node with its center position and every
relationship as an edge with the handle and side it attaches to. Tables
without a measured size are placed at the fallback size; pass --sizes with a
JSON object of node id to {"width","height"} to use real measurements.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(flags)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], sizesPath, output, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.diagram.json, - for stdout)")
	cmd.Flags().StringVar(&sizesPath, "sizes", "", "measured node sizes (JSON)")
	addLayoutFlags(cmd, &flags)

	return cmd
}

// runLayout loads the schema, lays it out and writes the diagram.
func (c *CLI) runLayout(ctx context.Context, input, sizesPath, output string, opts pipeline.Options) error {
	res, err := c.execute(ctx, input, sizesPath, opts)
	if err != nil {
		return err
	}

	data, err := pipeline.MarshalDiagram(res.Diagram)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode diagram")
	}
	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		output = outputBase(input) + ".diagram.json"
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(res.Stats, res.Stats.Cached)
	printDiagnostics(res.Diagnostics)
	printNewline()
	printNextStep("Render", appName+" render "+input)
	return nil
}

// execute runs the pipeline over a schema file behind a spinner.
func (c *CLI) execute(ctx context.Context, input, sizesPath string, opts pipeline.Options) (*pipeline.Result, error) {
	runner, err := c.newRunner()
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	db, err := runner.Parse(ctx, source.File{Path: input})
	if err != nil {
		return nil, err
	}
	reg, err := loadRegistry(sizesPath)
	if err != nil {
		return nil, err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Laying out %d tables...", db.TableCount()))
	spinner.Start()
	res, err := runner.Execute(ctx, db, reg.Snapshot(), opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return nil, err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return res, nil
}

// outputBase strips the extension of input.
func outputBase(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input))
}
