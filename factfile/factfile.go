// Package factfile decodes fact documents, the pre-parsed external feed
// of typed tuples that a topology load consumes. A document is YAML or
// JSON; the raw router-declaration syntax itself is handled upstream.
package factfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/topology-engine/model"
)

// internal document shapes; unexported so the wire format can evolve.
type factDocument struct {
	Nodes          []string            `yaml:"nodes" json:"nodes"`
	Interfaces     []interfaceEntry    `yaml:"interfaces" json:"interfaces"`
	Links          []linkEntry         `yaml:"links" json:"links"`
	AdminDistances []adminDistanceItem `yaml:"admin_distances" json:"admin_distances"`
	Networks       []networkEntry      `yaml:"networks" json:"networks"`
}

type interfaceEntry struct {
	ID   string `yaml:"id" json:"id"`
	Node string `yaml:"node" json:"node"`
}

type linkEntry struct {
	A string `yaml:"a" json:"a"`
	B string `yaml:"b" json:"b"`
}

type adminDistanceItem struct {
	Node     string `yaml:"node" json:"node"`
	Protocol string `yaml:"protocol" json:"protocol"`
	Distance int    `yaml:"distance" json:"distance"`
}

type networkEntry struct {
	Node    string `yaml:"node" json:"node"`
	Network string `yaml:"network" json:"network"`
}

// Decode reads a YAML fact document from r and returns the facts in
// document order: nodes, then interfaces, links, admin distances, and
// networks, each section in its declared order. Only structural and
// empty-field errors fail here; semantic validation belongs to the load
// phase.
func Decode(r io.Reader) ([]model.Fact, error) {
	var doc factDocument
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("factfile: decode failed: %w", err)
	}
	return doc.facts()
}

// DecodeJSON reads a JSON fact document from r.
func DecodeJSON(r io.Reader) ([]model.Fact, error) {
	var doc factDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("factfile: decode failed: %w", err)
	}
	return doc.facts()
}

// DecodeFile opens path and decodes it, choosing the format from the
// file extension: .json is JSON, anything else is treated as YAML.
func DecodeFile(path string) ([]model.Fact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("factfile: open %q: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DecodeJSON(f)
	}
	return Decode(f)
}

func (doc *factDocument) facts() ([]model.Fact, error) {
	total := len(doc.Nodes) + len(doc.Interfaces) + len(doc.Links) +
		len(doc.AdminDistances) + len(doc.Networks)
	facts := make([]model.Fact, 0, total)

	for _, id := range doc.Nodes {
		if id == "" {
			return nil, fmt.Errorf("factfile: node with empty id")
		}
		facts = append(facts, model.Node{ID: id})
	}
	for _, entry := range doc.Interfaces {
		if entry.ID == "" || entry.Node == "" {
			return nil, fmt.Errorf("factfile: interface with empty id or node")
		}
		facts = append(facts, model.Interface{ID: entry.ID, NodeID: entry.Node})
	}
	for _, entry := range doc.Links {
		if entry.A == "" || entry.B == "" {
			return nil, fmt.Errorf("factfile: link with empty endpoint")
		}
		facts = append(facts, model.Link{A: entry.A, B: entry.B})
	}
	for _, entry := range doc.AdminDistances {
		if entry.Node == "" || entry.Protocol == "" {
			return nil, fmt.Errorf("factfile: admin distance with empty node or protocol")
		}
		facts = append(facts, model.AdminDistance{
			NodeID:   entry.Node,
			Protocol: entry.Protocol,
			Distance: entry.Distance,
		})
	}
	for _, entry := range doc.Networks {
		if entry.Node == "" || entry.Network == "" {
			return nil, fmt.Errorf("factfile: network with empty node or id")
		}
		facts = append(facts, model.Network{NodeID: entry.Node, NetID: entry.Network})
	}

	return facts, nil
}
