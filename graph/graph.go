// Package graph derives an undirected router-adjacency graph from a
// committed topology snapshot and answers reachability queries over it.
package graph

import (
	"fmt"
	"sort"

	"github.com/signalsfoundry/topology-engine/topology"
)

// Edge is one logical adjacency between two nodes. Parallel links
// between the same node pair collapse into a single edge; the
// contributing interface pairs are kept for diagnostics.
type Edge struct {
	A string // node ID, lexicographically first
	B string

	// InterfacePairs lists the canonical interface pairs that realise
	// this adjacency, in link declaration order.
	InterfacePairs [][2]string
}

// Graph is an immutable, undirected simple graph over node IDs. Like
// the snapshot it is built from, it is safe for unlocked concurrent
// reads.
type Graph struct {
	nodes map[string]bool
	adj   map[string][]string // sorted neighbor lists
	edges map[[2]string]*Edge
}

// Build maps every link in the snapshot to its owning node pair and
// folds the result into a node-level adjacency structure. Links whose
// endpoints live on the same node do not produce an edge; the graph is
// simple.
func Build(snap *topology.Snapshot) *Graph {
	store := snap.Store()
	g := &Graph{
		nodes: make(map[string]bool),
		adj:   make(map[string][]string),
		edges: make(map[[2]string]*Edge),
	}

	for _, id := range store.Nodes() {
		g.nodes[id] = true
	}

	for _, link := range store.Links() {
		ifaceA, errA := store.Interface(link.A)
		ifaceB, errB := store.Interface(link.B)
		if errA != nil || errB != nil {
			// Cannot happen on a committed snapshot; skip rather
			// than guess.
			continue
		}
		nodeA, nodeB := ifaceA.NodeID, ifaceB.NodeID
		if nodeA == nodeB {
			continue
		}
		if nodeB < nodeA {
			nodeA, nodeB = nodeB, nodeA
		}

		key := [2]string{nodeA, nodeB}
		edge, ok := g.edges[key]
		if !ok {
			edge = &Edge{A: nodeA, B: nodeB}
			g.edges[key] = edge
			g.adj[nodeA] = append(g.adj[nodeA], nodeB)
			g.adj[nodeB] = append(g.adj[nodeB], nodeA)
		}

		ia, ib := link.Canonical()
		pair := [2]string{ia, ib}
		exists := false
		for _, p := range edge.InterfacePairs {
			if p == pair {
				exists = true
				break
			}
		}
		if !exists {
			edge.InterfacePairs = append(edge.InterfacePairs, pair)
		}
	}

	// Sorted adjacency keeps every traversal deterministic.
	for _, neighbors := range g.adj {
		sort.Strings(neighbors)
	}
	return g
}

// Nodes returns all vertices in lexicographic order.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Edges returns all logical edges, ordered by node pair. The result is
// a copy; mutating it does not affect the graph.
func (g *Graph) Edges() []Edge {
	keys := make([][2]string, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	out := make([]Edge, 0, len(keys))
	for _, k := range keys {
		edge := *g.edges[k]
		edge.InterfacePairs = append([][2]string(nil), edge.InterfacePairs...)
		out = append(out, edge)
	}
	return out
}

// Neighbors returns the sorted set of nodes adjacent to the given node.
func (g *Graph) Neighbors(node string) ([]string, error) {
	if !g.nodes[node] {
		return nil, fmt.Errorf("%w: node %q", topology.ErrNotFound, node)
	}
	neighbors := g.adj[node]
	out := make([]string, len(neighbors))
	copy(out, neighbors)
	return out, nil
}

// ShortestPath returns the node sequence of an unweighted shortest path
// from src to dst, inclusive of both endpoints. Among equal-length
// paths the lexicographically least one wins: neighbors are expanded in
// sorted order, so the first discovery of any node is also its
// tie-broken parent.
func (g *Graph) ShortestPath(src, dst string) ([]string, error) {
	if !g.nodes[src] {
		return nil, fmt.Errorf("%w: node %q", topology.ErrNotFound, src)
	}
	if !g.nodes[dst] {
		return nil, fmt.Errorf("%w: node %q", topology.ErrNotFound, dst)
	}
	if src == dst {
		return []string{src}, nil
	}

	parent := map[string]string{src: ""}
	queue := []string{src}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.adj[current] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			if next == dst {
				return assemblePath(parent, src, dst), nil
			}
			queue = append(queue, next)
		}
	}

	return nil, fmt.Errorf("%w: no path from %q to %q", topology.ErrNotFound, src, dst)
}

func assemblePath(parent map[string]string, src, dst string) []string {
	var reversed []string
	for at := dst; at != ""; at = parent[at] {
		reversed = append(reversed, at)
	}
	path := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}
