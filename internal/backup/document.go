// Package backup serializes the whole marketplace graph to a portable document and restores it.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/graph"
)

// Node is a serialized node. ID is only meaningful inside its document.
type Node struct {
	ID         int64       `json:"id"`
	Labels     []string    `json:"labels"`
	Properties graph.Props `json:"properties"`
}

// Relationship is a serialized directed relationship between two nodes of the same document.
type Relationship struct {
	ID         int64       `json:"id"`
	Type       string      `json:"type"`
	StartNode  int64       `json:"start_node"`
	EndNode    int64       `json:"end_node"`
	Properties graph.Props `json:"properties"`
}

// Document is the backup file format.
type Document struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Encode writes d as indented JSON.
func Encode(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("backup: encode: %w", err)
	}
	return nil
}

// Marshal returns the encoded form of d.
func Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a document. Malformed input is reported as a corrupt backup.
func Decode(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrCorruptBackup, err)
	}
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Relationships == nil {
		d.Relationships = []Relationship{}
	}
	return &d, nil
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backup: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile atomically writes d to path: tmp file, fsync, rename.
func WriteFile(path string, d *Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("backup: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".offcuts-backup-*")
	if err != nil {
		return fmt.Errorf("backup: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := Encode(tmp, d); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("backup: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("backup: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("backup: rename: %w", err)
	}
	success = true
	return nil
}

// Validate checks d against the schema: unique node ids, exactly one known label per node,
// known relationship types between existing nodes with matching labels.
func Validate(d *Document) error {
	labels := make(map[int64]string, len(d.Nodes))
	for _, n := range d.Nodes {
		if _, dup := labels[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %d", apperr.ErrCorruptBackup, n.ID)
		}
		if len(n.Labels) != 1 || !graph.KnownLabel(n.Labels[0]) {
			return fmt.Errorf("%w: node %d has labels %v", apperr.ErrCorruptBackup, n.ID, n.Labels)
		}
		labels[n.ID] = n.Labels[0]
	}
	for _, r := range d.Relationships {
		if !graph.KnownRelType(r.Type) {
			return fmt.Errorf("%w: relationship %d has unknown type %q", apperr.ErrCorruptBackup, r.ID, r.Type)
		}
		start, ok := labels[r.StartNode]
		if !ok {
			return fmt.Errorf("%w: relationship %d: missing start node %d", apperr.ErrCorruptBackup, r.ID, r.StartNode)
		}
		end, ok := labels[r.EndNode]
		if !ok {
			return fmt.Errorf("%w: relationship %d: missing end node %d", apperr.ErrCorruptBackup, r.ID, r.EndNode)
		}
		if !graph.ValidEndpoints(r.Type, start, end) {
			return fmt.Errorf("%w: relationship %d: %s cannot link %s to %s", apperr.ErrCorruptBackup, r.ID, r.Type, start, end)
		}
	}
	return nil
}
