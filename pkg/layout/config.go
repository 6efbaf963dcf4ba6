package layout

import (
	"strings"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/layout/ordering"
)

// RankDir is the direction in which ranks follow each other.
type RankDir string

// Rank directions.
const (
	TopToBottom RankDir = "TB"
	BottomToTop RankDir = "BT"
	LeftToRight RankDir = "LR"
	RightToLeft RankDir = "RL"
)

// Horizontal reports whether ranks are laid out as columns.
func (d RankDir) Horizontal() bool { return d == LeftToRight || d == RightToLeft }

// ParseRankDir parses a direction case-insensitively. The empty string is
// TopToBottom.
func ParseRankDir(s string) (RankDir, error) {
	switch d := RankDir(strings.ToUpper(strings.TrimSpace(s))); d {
	case "":
		return TopToBottom, nil
	case TopToBottom, BottomToTop, LeftToRight, RightToLeft:
		return d, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidConfig, "invalid rank direction %q (want TB, BT, LR or RL)", s)
	}
}

// Default spacing. Generous enough that typical table cards never touch.
const (
	DefaultNodeSep = 150
	DefaultRankSep = 150
	DefaultEdgeSep = 10
)

// Config controls an engine run.
type Config struct {
	RankDir RankDir `json:"rank_dir" msgpack:"d"`
	// NodeSep is the minimum gap between two boxes sharing a rank.
	NodeSep float64 `json:"node_sep" msgpack:"n"`
	// RankSep is the minimum gap between the boxes of consecutive ranks.
	RankSep float64 `json:"rank_sep" msgpack:"r"`
	// EdgeSep is the minimum gap next to the lane of a long edge.
	EdgeSep float64 `json:"edge_sep" msgpack:"e"`
	// Passes is the number of ordering sweeps.
	Passes int     `json:"passes" msgpack:"p"`
	Margin float64 `json:"margin" msgpack:"m"`
}

// DefaultConfig returns top-to-bottom layout with default spacing.
func DefaultConfig() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.RankDir == "" {
		c.RankDir = TopToBottom
	}
	if c.NodeSep == 0 {
		c.NodeSep = DefaultNodeSep
	}
	if c.RankSep == 0 {
		c.RankSep = DefaultRankSep
	}
	if c.EdgeSep == 0 {
		c.EdgeSep = DefaultEdgeSep
	}
	if c.Passes == 0 {
		c.Passes = ordering.DefaultPasses
	}
}

// Validate rejects negative spacing and unknown directions.
func (c Config) Validate() error {
	if _, err := ParseRankDir(string(c.RankDir)); err != nil {
		return err
	}
	if c.NodeSep < 0 || c.RankSep < 0 || c.EdgeSep < 0 || c.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "spacing must not be negative")
	}
	if c.Passes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "passes must not be negative, got %d", c.Passes)
	}
	return nil
}
