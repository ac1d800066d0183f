package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Wire Format
// =============================================================================

// Document is the node-link serialization of a Graph. It is used for the
// `graph --json` output, API responses and stored snapshots.
type Document struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is one leaf component.
type Node struct {
	ID      string `json:"id" bson:"id"`
	Name    string `json:"name" bson:"name"`
	Factory string `json:"factory" bson:"factory"`
	Kind    string `json:"kind" bson:"kind"`
	Caps    string `json:"caps,omitempty" bson:"caps,omitempty"`
}

// Edge is a producer→consumer link.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// Export converts g to its wire format. Nodes and edges keep graph order.
func Export(g *Graph) Document {
	doc := Document{
		Nodes: make([]Node, 0, g.Len()),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for _, c := range g.Components() {
		n := Node{ID: ID(c), Name: c.Name(), Factory: c.Factory(), Kind: c.Kind().String()}
		if caps, ok := c.Caps(); ok {
			n.Caps = caps
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	for _, e := range g.dag.Edges() {
		doc.Edges = append(doc.Edges, Edge{From: e.From, To: e.To})
	}
	return doc
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal converts a graph to indented JSON bytes.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes a graph as JSON to an io.Writer.
func WriteJSON(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a graph to a JSON file.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}

// Unmarshal decodes a JSON document.
func Unmarshal(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}
