package factfile

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/signalsfoundry/topology-engine/model"
)

const sampleYAML = `
nodes: [R1, R2]
interfaces:
  - {id: R1_I1, node: R1}
  - {id: R2_I1, node: R2}
links:
  - {a: R1_I1, b: R2_I1}
  - {a: R2_I1, b: R1_I1}
admin_distances:
  - {node: R1, protocol: static, distance: 1}
networks:
  - {node: R1, network: N1}
`

func TestDecodeYAMLPreservesOrder(t *testing.T) {
	facts, err := Decode(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := []model.Fact{
		model.Node{ID: "R1"},
		model.Node{ID: "R2"},
		model.Interface{ID: "R1_I1", NodeID: "R1"},
		model.Interface{ID: "R2_I1", NodeID: "R2"},
		model.Link{A: "R1_I1", B: "R2_I1"},
		model.Link{A: "R2_I1", B: "R1_I1"},
		model.AdminDistance{NodeID: "R1", Protocol: "static", Distance: 1},
		model.Network{NodeID: "R1", NetID: "N1"},
	}
	if !reflect.DeepEqual(facts, want) {
		t.Fatalf("Decode = %#v, want %#v", facts, want)
	}
}

func TestDecodeJSON(t *testing.T) {
	doc := `{
		"nodes": ["R1"],
		"interfaces": [{"id": "R1_I1", "node": "R1"}],
		"admin_distances": [{"node": "R1", "protocol": "bgp", "distance": 20}]
	}`

	facts, err := DecodeJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if len(facts) != 3 {
		t.Fatalf("DecodeJSON yielded %d facts, want 3", len(facts))
	}
	ad, ok := facts[2].(model.AdminDistance)
	if !ok || ad.Protocol != "bgp" || ad.Distance != 20 {
		t.Fatalf("facts[2] = %#v, want AdminDistance bgp/20", facts[2])
	}
}

func TestDecodeRejectsEmptyFields(t *testing.T) {
	for name, doc := range map[string]string{
		"interface": `interfaces: [{id: "", node: R1}]`,
		"link":      `links: [{a: R1_I1, b: ""}]`,
		"distance":  `admin_distances: [{node: R1, protocol: "", distance: 1}]`,
		"network":   `networks: [{node: "", network: N1}]`,
	} {
		if _, err := Decode(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s with empty field should fail to decode", name)
		}
	}
}

func TestDecodeFilePicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(yamlPath, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	jsonPath := filepath.Join(dir, "topology.json")
	if err := os.WriteFile(jsonPath, []byte(`{"nodes": ["R1"]}`), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}

	yamlFacts, err := DecodeFile(yamlPath)
	if err != nil {
		t.Fatalf("DecodeFile(yaml) failed: %v", err)
	}
	if len(yamlFacts) != 8 {
		t.Fatalf("DecodeFile(yaml) yielded %d facts, want 8", len(yamlFacts))
	}

	jsonFacts, err := DecodeFile(jsonPath)
	if err != nil {
		t.Fatalf("DecodeFile(json) failed: %v", err)
	}
	if !reflect.DeepEqual(jsonFacts, []model.Fact{model.Node{ID: "R1"}}) {
		t.Fatalf("DecodeFile(json) = %#v", jsonFacts)
	}
}
