package cache

import "fmt"

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey returns the key of an engine result for a graph whose
	// content hash is graphHash.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the engine settings that change a layout result.
type LayoutKeyOpts struct {
	Engine  string  `json:"engine"`
	RankDir string  `json:"rank_dir"`
	NodeSep float64 `json:"node_sep"`
	RankSep float64 `json:"rank_sep"`
	EdgeSep float64 `json:"edge_sep"`
	Passes  int     `json:"passes"`
	Margin  float64 `json:"margin"`
}

// DefaultKeyer produces keys of the form "layout:v1:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one backend.
//
// Example usage:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "erdflow:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

func (k *ScopedKeyer) String() string { return fmt.Sprintf("scoped(%q)", k.prefix) }
