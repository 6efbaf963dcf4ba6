package pipeline

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/render/nodelink"
)

// RenderOptions configures static exports.
type RenderOptions struct {
	// Detailed shows column types and key markers.
	Detailed bool
	// Fallback is the box size of unmeasured tables.
	Fallback diagram.Size
}

// Render generates output artifacts in the requested formats from a
// positioned diagram.
func Render(ctx context.Context, d diagram.Diagram, formats []string, opts ...RenderOptions) (map[string][]byte, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	var ro RenderOptions
	if len(opts) > 0 {
		ro = opts[0]
	}

	artifacts := make(map[string][]byte, len(formats))
	var dot string
	for _, format := range formats {
		if format != FormatJSON && dot == "" {
			dot = nodelink.ToDOT(d, nodelink.Options{Detailed: ro.Detailed, Fallback: ro.Fallback})
		}

		var data []byte
		var err error
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot)
		case FormatJSON:
			data, err = MarshalDiagram(d)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// MarshalDiagram encodes d as indented JSON with a trailing newline.
func MarshalDiagram(d diagram.Diagram) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
