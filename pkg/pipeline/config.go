package pipeline

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/erdflow/pkg/errors"
)

// LoadOptionsFile reads options from a TOML file:
//
//	engine   = "layered"
//	rank_dir = "LR"
//	node_sep = 120
//	settle   = "50ms"
//
// Unknown keys are rejected. Defaults are not applied, so callers can layer
// flags on top before calling ValidateAndSetDefaults.
func LoadOptionsFile(path string) (Options, error) {
	var opts Options
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", path)
		}
		return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &opts)
	if err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Options{}, errors.New(errors.ErrCodeInvalidConfig, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return opts, nil
}

// Merge returns o with every non-zero field of override applied on top.
// The logger of override wins when set.
func (o Options) Merge(override Options) Options {
	if override.Engine != "" {
		o.Engine = override.Engine
	}
	if override.RankDir != "" {
		o.RankDir = override.RankDir
	}
	if override.NodeSep != 0 {
		o.NodeSep = override.NodeSep
	}
	if override.RankSep != 0 {
		o.RankSep = override.RankSep
	}
	if override.EdgeSep != 0 {
		o.EdgeSep = override.EdgeSep
	}
	if override.Passes != 0 {
		o.Passes = override.Passes
	}
	if override.Margin != 0 {
		o.Margin = override.Margin
	}
	if override.FallbackWidth != 0 {
		o.FallbackWidth = override.FallbackWidth
	}
	if override.FallbackHeight != 0 {
		o.FallbackHeight = override.FallbackHeight
	}
	if override.Settle != 0 {
		o.Settle = override.Settle
	}
	if override.Logger != nil {
		o.Logger = override.Logger
	}
	o.validated = false
	return o
}
