package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/schema"
	"github.com/matzehuels/erdflow/pkg/source"
)

// Parse loads a schema model from src.
//
// Failures keep their code when src reports one and become INVALID_SCHEMA
// otherwise. Callers that must keep going on a failed parse pass a nil
// database to [Runner.Execute], which yields an empty diagram.
func Parse(ctx context.Context, src source.Source, logger *log.Logger) (*schema.Database, error) {
	if logger == nil {
		logger = discard
	}
	start := time.Now()
	db, err := src.Load(ctx)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeInvalidSchema, err, "load %s schema", src.Name())
		}
		return nil, err
	}
	logger.Info("loaded schema",
		"source", src.Name(),
		"tables", db.TableCount(),
		"refs", db.RefCount(),
		"duration", time.Since(start))
	return db, nil
}

// Parse loads a schema model with the runner's logger.
func (r *Runner) Parse(ctx context.Context, src source.Source) (*schema.Database, error) {
	return Parse(ctx, src, r.Logger)
}
