package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/schema"
	"github.com/matzehuels/erdflow/pkg/source"
	"github.com/matzehuels/erdflow/pkg/source/postgres"
	"github.com/matzehuels/erdflow/pkg/source/sqlite"
)

// introspectCommand creates the introspect command, which reads the schema
// of a live database into a model file.
func (c *CLI) introspectCommand() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Read the schema of a live database into a model file",
		Long: `Read the schema of a live database into a model file.

The model lists every table with its columns, primary and unique keys, and
every foreign key as a relationship. It can be passed to layout, render,
watch and the HTTP API.`,
	}

	cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.PersistentFlags().StringVar(&format, "format", "json", "output format: json, yaml")

	var schemas []string
	pg := &cobra.Command{
		Use:   "postgres [dsn]",
		Short: "Introspect a PostgreSQL database",
		Example: `  erdflow introspect postgres postgres://localhost:5432/shop
  erdflow introspect postgres "$DATABASE_URL" --schema public --schema billing -o shop.yaml --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := postgres.Source{DSN: args[0], Schemas: schemas}
			return c.runIntrospect(cmd.Context(), src, output, format)
		},
	}
	pg.Flags().StringSliceVar(&schemas, "schema", nil, "namespaces to read (default: public)")

	lite := &cobra.Command{
		Use:     "sqlite [file.db]",
		Short:   "Introspect a SQLite database file",
		Example: `  erdflow introspect sqlite app.db -o app.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runIntrospect(cmd.Context(), sqlite.Source{Path: args[0]}, output, format)
		},
	}

	cmd.AddCommand(pg, lite)
	return cmd
}

func (c *CLI) runIntrospect(ctx context.Context, src source.Source, output, format string) error {
	f := schema.Format(format)
	if f != schema.FormatJSON && f != schema.FormatYAML {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, yaml)", format)
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Reading %s catalog...", src.Name()))
	spinner.Start()
	db, err := pipeline.Parse(ctx, src, c.Logger)
	if err != nil {
		spinner.StopWithError("Introspection failed")
		return err
	}
	spinner.Stop()

	var buf bytes.Buffer
	if err := schema.Encode(&buf, db, f); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode schema")
	}
	if output == "" || output == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	prog.done("Introspected "+src.Name(), "tables", db.TableCount(), "relations", db.RefCount())
	printSuccess("Schema written")
	printFile(output)
	printNewline()
	printNextStep("Lay out", appName+" layout "+output)
	return nil
}
