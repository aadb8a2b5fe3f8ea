package model

// Kind discriminates the fact variants a topology feed may declare.
type Kind string

const (
	KindNode          Kind = "node"
	KindInterface     Kind = "interface"
	KindLink          Kind = "link"
	KindAdminDistance Kind = "admin_distance"
	KindNetwork       Kind = "network"
)

// Fact is the tagged variant over the five declarable record types.
// Every fact is validated independently before being folded into a store.
type Fact interface {
	Kind() Kind
}

// Node represents a router. Nodes are only ever created by an explicit
// declaration; referencing an undeclared node never creates one.
type Node struct {
	ID string
}

func (Node) Kind() Kind { return KindNode }

// Interface is a node's attachment point. IDs are globally unique, and
// the owning node must already be declared.
type Interface struct {
	ID     string
	NodeID string
}

func (Interface) Kind() Kind { return KindInterface }

// Link is an unordered pair of interface IDs representing a bidirectional
// physical connection. Feeds usually declare both orientations; a
// one-sided declaration is surfaced as a warning during validation.
type Link struct {
	A string
	B string
}

func (Link) Kind() Kind { return KindLink }

// Canonical returns the endpoint pair in lexicographic order, so that
// Link{A, B} and Link{B, A} identify the same physical connection.
func (l Link) Canonical() (string, string) {
	if l.B < l.A {
		return l.B, l.A
	}
	return l.A, l.B
}

// AdminDistance ranks a routing-information source on a node. Lower
// distances are more trusted.
type AdminDistance struct {
	NodeID   string
	Protocol string
	Distance int
}

func (AdminDistance) Kind() Kind { return KindAdminDistance }

// Network associates a node with a locally reachable address block. The
// block identifier is opaque to the engine.
type Network struct {
	NodeID string
	NetID  string
}

func (Network) Kind() Kind { return KindNetwork }
