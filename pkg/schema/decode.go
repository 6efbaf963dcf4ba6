package schema

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/erdflow/pkg/errors"
)

// Format is a schema file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the format from a file extension. Unknown
// extensions default to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a database from r in the given format.
//
// Only syntax and type errors are reported (as INVALID_SCHEMA). Dangling
// references and empty endpoints decode fine; the diagram builder reports
// them as diagnostics.
func Decode(r io.Reader, format Format) (*Database, error) {
	var db Database
	switch format {
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&db); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "decode json schema")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&db); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "decode yaml schema")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown schema format %q", format)
	}
	return &db, nil
}

// Parse decodes a database held in memory.
func Parse(data []byte, format Format) (*Database, error) {
	return Decode(bytes.NewReader(data), format)
}

// ReadFile reads a database from path, inferring the format from its
// extension.
//
// The file is read whole before decoding, so a file rewritten while being
// watched either decodes completely or fails.
func ReadFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "schema file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read schema file %s", path)
	}
	return Parse(data, FormatFromPath(path))
}

// Encode writes db to w in the given format. JSON output is indented.
func Encode(w io.Writer, db *Database, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(db)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(db); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown schema format %q", format)
	}
}
