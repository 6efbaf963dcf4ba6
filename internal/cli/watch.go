package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/registry"
	"github.com/matzehuels/erdflow/pkg/relayout"
	"github.com/matzehuels/erdflow/pkg/schema"
)

// watchOpts holds the command-line flags of the watch command.
type watchOpts struct {
	sizes  string // measured node sizes, reloaded on change
	output string // diagram JSON rewritten after every build
	plain  bool   // log instead of the live table
}

// watchCommand creates the watch command, which relayouts whenever the
// schema or the measurements change.
func (c *CLI) watchCommand() *cobra.Command {
	var wo watchOpts
	var flags pipeline.Options

	cmd := &cobra.Command{
		Use:   "watch [schema.json|schema.yaml]",
		Short: "Relayout a schema whenever it or its measurements change",
		Long: `Relayout a schema whenever it or its measurements change.

The schema file and the --sizes file are watched. Changes arriving within the
settle window are coalesced into a single layout. A schema that fails to
parse keeps the previous diagram on screen until it is fixed.

With -o the diagram JSON is rewritten after every layout, so an editor or a
browser preview can follow along.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(flags)
			if err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), args[0], wo, opts)
		},
	}

	cmd.Flags().StringVar(&wo.sizes, "sizes", "", "measured node sizes (JSON), reloaded on change")
	cmd.Flags().StringVarP(&wo.output, "output", "o", "", "rewrite the diagram JSON here after every layout")
	cmd.Flags().BoolVar(&wo.plain, "plain", false, "log layouts instead of showing the live table")
	cmd.Flags().DurationVar(&flags.Settle, "settle", 0, "quiet period before a relayout (default 16ms)")
	addLayoutFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, wo watchOpts, opts pipeline.Options) error {
	runner, err := c.newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	reg, err := loadRegistry(wo.sizes)
	if err != nil {
		return err
	}
	if wo.plain {
		opts.Logger = c.Logger
	} else {
		// The live table owns the terminal.
		opts.Logger = newLogger(io.Discard, c.Logger.GetLevel())
		runner.Logger = opts.Logger
	}
	orch, err := relayout.New(reg, runner, opts)
	if err != nil {
		return err
	}
	defer orch.Close()

	w := &watcher{
		input:  input,
		sizes:  wo.sizes,
		reg:    reg,
		orch:   orch,
		logger: opts.Logger,
	}
	if err := w.loadSchema(); err != nil {
		// Start from an empty diagram; the next save is picked up.
		w.logger.Warn("schema not loaded", "err", err)
		orch.SetSchema(nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}
	defer fsw.Close()
	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "watch %s", dir)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var ui *tea.Program
	if !wo.plain {
		ui = tea.NewProgram(newWatchModel(input), tea.WithContext(gctx), tea.WithAltScreen())
	}
	unsubscribe := orch.Subscribe(func(d diagram.Diagram) {
		if wo.output != "" {
			if err := writeDiagram(wo.output, d); err != nil {
				w.logger.Error("write diagram", "path", wo.output, "err", err)
			}
		}
		if ui != nil {
			ui.Send(diagramMsg{Diagram: d, Builds: orch.Builds(), At: time.Now()})
			return
		}
		c.Logger.Info("laid out",
			"tables", len(d.Nodes),
			"relations", len(d.Edges),
			"diagnostics", len(d.Diagnostics),
			"build", orch.Builds())
	})
	defer unsubscribe()

	g.Go(func() error { return quiet(orch.Run(gctx)) })
	g.Go(func() error {
		return quiet(w.loop(gctx, fsw, func(msg fileMsg) {
			if ui != nil {
				ui.Send(msg)
			}
		}))
	})
	if ui != nil {
		g.Go(func() error {
			_, err := ui.Run()
			cancel()
			if stderrors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	} else {
		c.Logger.Info("watching", "schema", input, "sizes", wo.sizes)
	}

	return g.Wait()
}

// quiet drops the error a goroutine returns because its context ended.
func quiet(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watcher reloads the watched files into the orchestrator.
type watcher struct {
	input  string
	sizes  string
	reg    *registry.Registry
	orch   *relayout.Orchestrator
	logger *log.Logger
}

func (w *watcher) dirs() []string {
	dirs := []string{filepath.Dir(w.input)}
	if w.sizes != "" && filepath.Dir(w.sizes) != dirs[0] {
		dirs = append(dirs, filepath.Dir(w.sizes))
	}
	return dirs
}

func (w *watcher) loadSchema() error {
	db, err := schema.ReadFile(w.input)
	if err != nil {
		return err
	}
	w.orch.SetSchema(db)
	return nil
}

func (w *watcher) loadSizes() error {
	sizes, err := readSizes(w.sizes)
	if err != nil {
		return err
	}
	// Only changed entries trigger a relayout.
	return w.reg.SetAll(sizes)
}

// loop dispatches file events until ctx is done. Editors often replace a
// file instead of writing it, so the parent directories are watched and
// events are matched by path.
func (w *watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, notify func(fileMsg)) error {
	input := filepath.Clean(w.input)
	sizes := filepath.Clean(w.sizes)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher", "err", err)
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			var err error
			switch filepath.Clean(ev.Name) {
			case input:
				err = w.loadSchema()
			case sizes:
				if w.sizes == "" {
					continue
				}
				err = w.loadSizes()
			default:
				continue
			}
			w.logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			if err != nil {
				w.logger.Warn("reload failed, keeping previous diagram", "path", ev.Name, "err", err)
			}
			notify(fileMsg{Path: ev.Name, Err: err})
		}
	}
}

func writeDiagram(path string, d diagram.Diagram) error {
	data, err := pipeline.MarshalDiagram(d)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
