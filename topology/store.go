package topology

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/topology-engine/model"
)

var (
	ErrDuplicateKey     = errors.New("duplicate identifier")
	ErrUnknownReference = errors.New("unknown reference")
	ErrSelfLink         = errors.New("link connects an interface to itself")
	ErrBadFact          = errors.New("invalid fact")
	ErrNotFound         = errors.New("not found")
)

// Store holds validated topology facts in normalized in-memory tables
// keyed by identifier. Declaration order is preserved per fact kind so
// that downstream tie-breaks and serialized output stay deterministic.
//
// A Store is only mutated through Declare during the load phase; once a
// load commits, the owning Snapshot treats it as read-only and it may be
// shared across any number of concurrent readers without locking.
type Store struct {
	nodes     map[string]model.Node
	nodeOrder []string

	interfaces   map[string]model.Interface
	ifaceOrder   []string
	ifacesByNode map[string][]string

	links []model.Link
	// declaredPairs records the exact orientations that were declared,
	// so the validator can tell a one-sided Link(a,b) from a properly
	// reciprocal pair.
	declaredPairs map[[2]string]bool

	adminDistances []model.AdminDistance

	networks []model.Network
}

// NewStore creates an empty fact store.
func NewStore() *Store {
	return &Store{
		nodes:         make(map[string]model.Node),
		interfaces:    make(map[string]model.Interface),
		ifacesByNode:  make(map[string][]string),
		declaredPairs: make(map[[2]string]bool),
	}
}

// Declare validates a single fact against the facts already present and
// folds it in. References must point at previously declared entities:
// the feed is expected to declare nodes before interfaces, and
// interfaces before links.
func (s *Store) Declare(f model.Fact) error {
	switch fact := f.(type) {
	case model.Node:
		return s.declareNode(fact)
	case model.Interface:
		return s.declareInterface(fact)
	case model.Link:
		return s.declareLink(fact)
	case model.AdminDistance:
		return s.declareAdminDistance(fact)
	case model.Network:
		return s.declareNetwork(fact)
	default:
		return fmt.Errorf("%w: unsupported fact %T", ErrBadFact, f)
	}
}

func (s *Store) declareNode(n model.Node) error {
	if n.ID == "" {
		return fmt.Errorf("%w: node with empty id", ErrBadFact)
	}
	if _, exists := s.nodes[n.ID]; exists {
		// A node carries no attributes beyond its identity, so a
		// redeclaration cannot conflict. Accept it as a no-op.
		return nil
	}
	s.nodes[n.ID] = n
	s.nodeOrder = append(s.nodeOrder, n.ID)
	return nil
}

func (s *Store) declareInterface(i model.Interface) error {
	if i.ID == "" || i.NodeID == "" {
		return fmt.Errorf("%w: interface with empty id or node", ErrBadFact)
	}
	if existing, exists := s.interfaces[i.ID]; exists {
		if existing.NodeID == i.NodeID {
			return nil
		}
		return fmt.Errorf("%w: interface %q redeclared on node %q (already on %q)",
			ErrDuplicateKey, i.ID, i.NodeID, existing.NodeID)
	}
	if _, ok := s.nodes[i.NodeID]; !ok {
		return fmt.Errorf("%w: interface %q references undeclared node %q",
			ErrUnknownReference, i.ID, i.NodeID)
	}
	s.interfaces[i.ID] = i
	s.ifaceOrder = append(s.ifaceOrder, i.ID)
	s.ifacesByNode[i.NodeID] = append(s.ifacesByNode[i.NodeID], i.ID)
	return nil
}

func (s *Store) declareLink(l model.Link) error {
	if l.A == "" || l.B == "" {
		return fmt.Errorf("%w: link with empty endpoint", ErrBadFact)
	}
	if l.A == l.B {
		return fmt.Errorf("%w: %q", ErrSelfLink, l.A)
	}
	if _, ok := s.interfaces[l.A]; !ok {
		return fmt.Errorf("%w: link references undeclared interface %q",
			ErrUnknownReference, l.A)
	}
	if _, ok := s.interfaces[l.B]; !ok {
		return fmt.Errorf("%w: link references undeclared interface %q",
			ErrUnknownReference, l.B)
	}
	pair := [2]string{l.A, l.B}
	if s.declaredPairs[pair] {
		// Exact duplicate declaration; links have set semantics.
		return nil
	}
	s.declaredPairs[pair] = true
	s.links = append(s.links, l)
	return nil
}

func (s *Store) declareAdminDistance(ad model.AdminDistance) error {
	if ad.NodeID == "" || ad.Protocol == "" {
		return fmt.Errorf("%w: admin distance with empty node or protocol", ErrBadFact)
	}
	if _, ok := s.nodes[ad.NodeID]; !ok {
		return fmt.Errorf("%w: admin distance references undeclared node %q",
			ErrUnknownReference, ad.NodeID)
	}
	// Duplicate (node, protocol) pairs are legal at declare time; the
	// validator surfaces conflicting distances as warnings and the
	// resolver applies lowest-wins.
	s.adminDistances = append(s.adminDistances, ad)
	return nil
}

func (s *Store) declareNetwork(n model.Network) error {
	if n.NodeID == "" || n.NetID == "" {
		return fmt.Errorf("%w: network with empty node or id", ErrBadFact)
	}
	if _, ok := s.nodes[n.NodeID]; !ok {
		return fmt.Errorf("%w: network %q references undeclared node %q",
			ErrUnknownReference, n.NetID, n.NodeID)
	}
	for _, existing := range s.networks {
		if existing == n {
			return nil
		}
	}
	s.networks = append(s.networks, n)
	return nil
}

// Node returns the node with the given ID.
func (s *Store) Node(id string) (model.Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return model.Node{}, fmt.Errorf("%w: node %q", ErrNotFound, id)
	}
	return n, nil
}

// Interface returns the interface with the given ID.
func (s *Store) Interface(id string) (model.Interface, error) {
	i, ok := s.interfaces[id]
	if !ok {
		return model.Interface{}, fmt.Errorf("%w: interface %q", ErrNotFound, id)
	}
	return i, nil
}

// HasNode reports whether a node was declared.
func (s *Store) HasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// Nodes returns node IDs in declaration order.
func (s *Store) Nodes() []string {
	out := make([]string, len(s.nodeOrder))
	copy(out, s.nodeOrder)
	return out
}

// Interfaces returns interface IDs in declaration order.
func (s *Store) Interfaces() []string {
	out := make([]string, len(s.ifaceOrder))
	copy(out, s.ifaceOrder)
	return out
}

// InterfacesOf returns the IDs of interfaces owned by a node, in
// declaration order.
func (s *Store) InterfacesOf(nodeID string) []string {
	ids := s.ifacesByNode[nodeID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Links returns all declared links in declaration order. Exact duplicate
// declarations are collapsed; reciprocal declarations are not.
func (s *Store) Links() []model.Link {
	out := make([]model.Link, len(s.links))
	copy(out, s.links)
	return out
}

// HasLinkDeclaration reports whether the exact orientation (a, b) was
// declared in the feed.
func (s *Store) HasLinkDeclaration(a, b string) bool {
	return s.declaredPairs[[2]string{a, b}]
}

// AdminDistances returns all admin-distance facts in declaration order,
// including duplicates.
func (s *Store) AdminDistances() []model.AdminDistance {
	out := make([]model.AdminDistance, len(s.adminDistances))
	copy(out, s.adminDistances)
	return out
}

// AdminDistancesOf returns the admin-distance facts for one node, in
// declaration order.
func (s *Store) AdminDistancesOf(nodeID string) []model.AdminDistance {
	var out []model.AdminDistance
	for _, ad := range s.adminDistances {
		if ad.NodeID == nodeID {
			out = append(out, ad)
		}
	}
	return out
}

// Networks returns all declared networks in declaration order.
func (s *Store) Networks() []model.Network {
	out := make([]model.Network, len(s.networks))
	copy(out, s.networks)
	return out
}

// NetworksOf returns the networks owned by a node, in declaration order.
func (s *Store) NetworksOf(nodeID string) []model.Network {
	var out []model.Network
	for _, n := range s.networks {
		if n.NodeID == nodeID {
			out = append(out, n)
		}
	}
	return out
}
