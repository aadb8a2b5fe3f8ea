package topology

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/topology-engine/model"
)

// declareAll folds facts into a fresh store, failing the test on the
// first unexpected error.
func declareAll(t *testing.T, facts ...model.Fact) *Store {
	t.Helper()
	s := NewStore()
	for _, f := range facts {
		if err := s.Declare(f); err != nil {
			t.Fatalf("Declare(%#v) returned error: %v", f, err)
		}
	}
	return s
}

func TestDeclareNodeRedeclarationIsNoOp(t *testing.T) {
	s := declareAll(t, model.Node{ID: "R1"})

	if err := s.Declare(model.Node{ID: "R1"}); err != nil {
		t.Fatalf("identical node redeclaration should be a no-op, got: %v", err)
	}
	if got := s.Nodes(); len(got) != 1 {
		t.Fatalf("Nodes() = %v, want one entry", got)
	}
}

func TestDeclareInterfaceRequiresDeclaredNode(t *testing.T) {
	s := NewStore()

	err := s.Declare(model.Interface{ID: "R1_I1", NodeID: "R1"})
	if !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference, got: %v", err)
	}
}

func TestDeclareInterfaceConflictingOwnerFails(t *testing.T) {
	s := declareAll(t,
		model.Node{ID: "R1"},
		model.Node{ID: "R2"},
		model.Interface{ID: "I1", NodeID: "R1"},
	)

	err := s.Declare(model.Interface{ID: "I1", NodeID: "R2"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for conflicting owner, got: %v", err)
	}

	// A redeclaration with identical attributes carries no conflict.
	if err := s.Declare(model.Interface{ID: "I1", NodeID: "R1"}); err != nil {
		t.Fatalf("identical interface redeclaration should be a no-op, got: %v", err)
	}
}

func TestDeclareLinkValidation(t *testing.T) {
	s := declareAll(t,
		model.Node{ID: "R1"},
		model.Node{ID: "R2"},
		model.Interface{ID: "R1_I1", NodeID: "R1"},
		model.Interface{ID: "R2_I1", NodeID: "R2"},
	)

	if err := s.Declare(model.Link{A: "R1_I1", B: "missing"}); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference for dangling endpoint, got: %v", err)
	}
	if err := s.Declare(model.Link{A: "R1_I1", B: "R1_I1"}); !errors.Is(err, ErrSelfLink) {
		t.Fatalf("expected ErrSelfLink, got: %v", err)
	}
	if err := s.Declare(model.Link{A: "R1_I1", B: "R2_I1"}); err != nil {
		t.Fatalf("valid link failed: %v", err)
	}

	// Exact duplicates collapse; the reciprocal orientation does not.
	if err := s.Declare(model.Link{A: "R1_I1", B: "R2_I1"}); err != nil {
		t.Fatalf("duplicate link declaration should be a no-op, got: %v", err)
	}
	if err := s.Declare(model.Link{A: "R2_I1", B: "R1_I1"}); err != nil {
		t.Fatalf("reciprocal link declaration failed: %v", err)
	}
	if got := len(s.Links()); got != 2 {
		t.Fatalf("Links() has %d entries, want 2", got)
	}
	if !s.HasLinkDeclaration("R1_I1", "R2_I1") || !s.HasLinkDeclaration("R2_I1", "R1_I1") {
		t.Fatalf("both declared orientations should be recorded")
	}
}

func TestDeclareAdminDistanceAndNetworkRequireNode(t *testing.T) {
	s := declareAll(t, model.Node{ID: "R1"})

	if err := s.Declare(model.AdminDistance{NodeID: "R9", Protocol: "static", Distance: 1}); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference for admin distance, got: %v", err)
	}
	if err := s.Declare(model.Network{NodeID: "R9", NetID: "N1"}); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference for network, got: %v", err)
	}

	if err := s.Declare(model.AdminDistance{NodeID: "R1", Protocol: "static", Distance: 1}); err != nil {
		t.Fatalf("valid admin distance failed: %v", err)
	}
	if err := s.Declare(model.Network{NodeID: "R1", NetID: "N1"}); err != nil {
		t.Fatalf("valid network failed: %v", err)
	}
}

func TestLookupsAndDeclarationOrder(t *testing.T) {
	s := declareAll(t,
		model.Node{ID: "R2"},
		model.Node{ID: "R1"},
		model.Interface{ID: "R2_I1", NodeID: "R2"},
		model.Interface{ID: "R1_I1", NodeID: "R1"},
		model.Interface{ID: "R1_I2", NodeID: "R1"},
	)

	if _, err := s.Node("R1"); err != nil {
		t.Fatalf("Node(R1) failed: %v", err)
	}
	if _, err := s.Node("R9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown node, got: %v", err)
	}
	iface, err := s.Interface("R1_I2")
	if err != nil || iface.NodeID != "R1" {
		t.Fatalf("Interface(R1_I2) = %#v, %v", iface, err)
	}

	// Declaration order, not lexicographic order.
	nodes := s.Nodes()
	if len(nodes) != 2 || nodes[0] != "R2" || nodes[1] != "R1" {
		t.Fatalf("Nodes() = %v, want [R2 R1]", nodes)
	}
	owned := s.InterfacesOf("R1")
	if len(owned) != 2 || owned[0] != "R1_I1" || owned[1] != "R1_I2" {
		t.Fatalf("InterfacesOf(R1) = %v, want [R1_I1 R1_I2]", owned)
	}
}

func TestAdminDistancesKeepDuplicates(t *testing.T) {
	s := declareAll(t,
		model.Node{ID: "R1"},
		model.AdminDistance{NodeID: "R1", Protocol: "static", Distance: 1},
		model.AdminDistance{NodeID: "R1", Protocol: "static", Distance: 3},
	)

	ads := s.AdminDistancesOf("R1")
	if len(ads) != 2 {
		t.Fatalf("AdminDistancesOf(R1) has %d entries, want 2 (duplicates preserved)", len(ads))
	}
	if ads[0].Distance != 1 || ads[1].Distance != 3 {
		t.Fatalf("AdminDistancesOf(R1) out of declaration order: %v", ads)
	}
}
