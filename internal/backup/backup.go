// Package backup writes and reads full planner snapshots as files.
//
// A backup is a small document wrapping the serializable state. It is
// stored as JSON (.json) or CBOR (.cbor), optionally zstd-compressed when
// the name ends in .zst. Reading always yields raw fields so imported data
// goes through the normalizer like any other stored state.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/normalize"
)

// Kind marks a backup document.
const Kind = "weekgrid-backup"

var (
	ErrUnknownFormat = errors.New("unknown backup format")
	ErrNotBackup     = errors.New("not a weekgrid backup")
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// Meta describes where and when a backup was taken.
type Meta struct {
	ExportedAt time.Time
	DeviceID   string
}

// document is the stored shape. State is kept generic so the CBOR and JSON
// forms carry the same tree.
type document struct {
	Kind       string         `json:"kind"`
	Version    int            `json:"version"`
	ExportedAt string         `json:"exportedAt"`
	DeviceID   string         `json:"deviceId,omitempty"`
	State      map[string]any `json:"state"`
}

// FormatForPath picks the format from the file name: .json or .cbor,
// optionally followed by .zst.
func FormatForPath(path string) (Format, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, ".zst")
	name = strings.TrimSuffix(name, ".zst")
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".cbor":
		return FormatCBOR, compressed, nil
	}
	return "", false, fmt.Errorf("%w: %s (use .json, .cbor, optionally with .zst)", ErrUnknownFormat, filepath.Base(path))
}

// Write encodes st as a backup document.
func Write(w io.Writer, format Format, compressed bool, st domain.SerializableState, meta Meta) error {
	state, err := toTree(st)
	if err != nil {
		return err
	}
	doc := document{
		Kind:       Kind,
		Version:    domain.SchemaVersion,
		ExportedAt: meta.ExportedAt.UTC().Format(time.RFC3339),
		DeviceID:   meta.DeviceID,
		State:      state,
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	case FormatCBOR:
		data, err = marshalCBOR(doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	if compressed {
		data = compress(data)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}

// Read decodes a backup document. A JSON file holding a bare state object,
// as older exports did, is accepted too.
func Read(r io.Reader, format Format, compressed bool) (normalize.Raw, Meta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("reading backup: %w", err)
	}
	if compressed {
		if data, err = decompress(data); err != nil {
			return nil, Meta{}, err
		}
	}

	var doc document
	switch format {
	case FormatJSON:
		raw, err := readJSON(data, &doc)
		if err != nil || raw != nil {
			return raw, Meta{}, err
		}
	case FormatCBOR:
		if err := unmarshalCBOR(data, &doc); err != nil {
			return nil, Meta{}, fmt.Errorf("%w: %v", ErrNotBackup, err)
		}
	default:
		return nil, Meta{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if doc.Kind != Kind || doc.State == nil {
		return nil, Meta{}, ErrNotBackup
	}

	raw, err := fromTree(doc.State)
	if err != nil {
		return nil, Meta{}, err
	}
	meta := Meta{DeviceID: doc.DeviceID}
	if t, err := time.Parse(time.RFC3339, doc.ExportedAt); err == nil {
		meta.ExportedAt = t
	}
	return raw, meta, nil
}

// readJSON fills doc when data is a backup document, or returns the raw
// fields when it is a bare state.
func readJSON(data []byte, doc *document) (normalize.Raw, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBackup, err)
	}
	if _, ok := probe["kind"]; !ok {
		if _, ok := probe[domain.FieldTasks]; ok {
			return normalize.Raw(probe), nil
		}
		return nil, ErrNotBackup
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBackup, err)
	}
	return nil, nil
}

// WriteFile exports st to path, choosing the format from its name.
func WriteFile(path string, st domain.SerializableState, meta Meta) error {
	format, compressed, err := FormatForPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, format, compressed, st, meta); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadFile imports the backup at path.
func ReadFile(path string) (normalize.Raw, Meta, error) {
	format, compressed, err := FormatForPath(path)
	if err != nil {
		return nil, Meta{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, format, compressed)
}

// toTree turns the state into plain maps, slices and scalars with integer
// numbers kept as int64.
func toTree(st domain.SerializableState) (map[string]any, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return plain(tree).(map[string]any), nil
}

func plain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = plain(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = plain(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

func fromTree(tree map[string]any) (normalize.Raw, error) {
	raw := make(normalize.Raw, len(tree))
	for k, v := range tree {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("decoding field %s: %w", k, err)
		}
		raw[k] = data
	}
	return raw, nil
}
