// Package semdoc parses semantic YAML documents describing data models into a
// typed intermediate representation. The IR keeps references into the original
// yaml.Node tree, so structural edits (value injection) round-trip without
// touching fields the parser does not understand.
package semdoc

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a parsed semantic document.
type Document struct {
	root   yaml.Node
	Models []*Model
}

// Model describes one table-shaped model inside a document. Name doubles as
// the physical table name when matching stored-value coordinates.
type Model struct {
	Name       string
	Database   string
	Schema     string
	Dimensions []*Dimension
	Measures   []*Measure
	Metrics    []*Metric
}

// Dimension is a column-bearing model child. Searchable dimensions are
// eligible for value injection.
type Dimension struct {
	Name       string
	Expr       string
	Searchable bool

	node *yaml.Node // mapping node inside the document tree
}

// Measure is an aggregatable model child.
type Measure struct {
	Name string
	Expr string
}

// Metric is a derived model child.
type Metric struct {
	Name string
}

// Parse decodes a semantic YAML document into the typed IR.
func Parse(text string) (*Document, error) {
	doc := &Document{}
	if err := yaml.Unmarshal([]byte(text), &doc.root); err != nil {
		return nil, fmt.Errorf("parse semantic document: %w", err)
	}
	if doc.root.Kind != yaml.DocumentNode || len(doc.root.Content) == 0 {
		return nil, fmt.Errorf("semantic document is empty")
	}

	mapping := doc.root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("semantic document root must be a mapping, got %v", mapping.Kind)
	}

	models := childValue(mapping, "models")
	if models == nil || models.Kind != yaml.SequenceNode {
		// No model list is a valid document; there is just nothing to enrich.
		return doc, nil
	}

	for _, n := range models.Content {
		if n.Kind != yaml.MappingNode {
			continue
		}
		doc.Models = append(doc.Models, parseModel(n))
	}
	return doc, nil
}

// Marshal serializes the document, including any structural edits, back to YAML.
func (d *Document) Marshal() (string, error) {
	out, err := yaml.Marshal(&d.root)
	if err != nil {
		return "", fmt.Errorf("marshal semantic document: %w", err)
	}
	return string(out), nil
}

// SearchableDimensions returns the dimensions explicitly flagged searchable.
func (m *Model) SearchableDimensions() []*Dimension {
	var out []*Dimension
	for _, dim := range m.Dimensions {
		if dim.Searchable {
			out = append(out, dim)
		}
	}
	return out
}

// Columns reconstructs the flat column-name space of the model: dimension
// names and expressions (when distinct), measure names and expressions, and
// metric names. The document format never declares this list centrally.
func (m *Model) Columns() []string {
	var cols []string
	for _, dim := range m.Dimensions {
		cols = append(cols, dim.Name)
		if dim.Expr != "" && dim.Expr != dim.Name {
			cols = append(cols, dim.Expr)
		}
	}
	for _, ms := range m.Measures {
		cols = append(cols, ms.Name)
		if ms.Expr != "" && ms.Expr != ms.Name {
			cols = append(cols, ms.Expr)
		}
	}
	for _, mt := range m.Metrics {
		cols = append(cols, mt.Name)
	}
	return cols
}

// MatchesColumn reports whether a stored-value column name addresses this
// dimension, either by its logical name or its physical expression.
func (d *Dimension) MatchesColumn(column string) bool {
	if d.Name == column {
		return true
	}
	return d.Expr != "" && d.Expr == column
}

// SetRelevantValues overwrites the dimension's relevant_values list in the
// underlying document tree. Overwriting keeps repeated enrichment idempotent.
func (d *Dimension) SetRelevantValues(values []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: v,
		})
	}

	if existing := childValue(d.node, "relevant_values"); existing != nil {
		*existing = *seq
		return
	}
	d.node.Content = append(d.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "relevant_values"},
		seq,
	)
}

// RelevantValues reads back the injected value list, if any.
func (d *Dimension) RelevantValues() []string {
	node := childValue(d.node, "relevant_values")
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(node.Content))
	for _, n := range node.Content {
		out = append(out, n.Value)
	}
	return out
}

func parseModel(n *yaml.Node) *Model {
	m := &Model{
		Name:     scalarChild(n, "name"),
		Database: scalarChild(n, "database"),
		Schema:   scalarChild(n, "schema"),
	}
	if m.Name == "" {
		m.Name = "unknown_model"
	}
	if m.Database == "" {
		m.Database = "unknown"
	}
	if m.Schema == "" {
		m.Schema = "public"
	}

	if dims := childValue(n, "dimensions"); dims != nil && dims.Kind == yaml.SequenceNode {
		for _, dn := range dims.Content {
			if dn.Kind != yaml.MappingNode {
				continue
			}
			m.Dimensions = append(m.Dimensions, &Dimension{
				Name:       scalarChild(dn, "name"),
				Expr:       scalarChild(dn, "expr"),
				Searchable: scalarChild(dn, "searchable") == "true",
				node:       dn,
			})
		}
	}
	if measures := childValue(n, "measures"); measures != nil && measures.Kind == yaml.SequenceNode {
		for _, mn := range measures.Content {
			if mn.Kind != yaml.MappingNode {
				continue
			}
			m.Measures = append(m.Measures, &Measure{
				Name: scalarChild(mn, "name"),
				Expr: scalarChild(mn, "expr"),
			})
		}
	}
	if metrics := childValue(n, "metrics"); metrics != nil && metrics.Kind == yaml.SequenceNode {
		for _, mn := range metrics.Content {
			if mn.Kind != yaml.MappingNode {
				continue
			}
			m.Metrics = append(m.Metrics, &Metric{Name: scalarChild(mn, "name")})
		}
	}
	return m
}

// childValue returns the value node for a key inside a mapping node.
func childValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func scalarChild(mapping *yaml.Node, key string) string {
	n := childValue(mapping, key)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}
