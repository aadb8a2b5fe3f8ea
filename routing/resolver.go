// Package routing resolves route-source preference from administrative
// distance facts. Lower distances are more trusted.
package routing

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/topology-engine/topology"
)

// ErrNoRouteSource indicates a node declares no admin-distance facts at
// all, so no best source exists.
var ErrNoRouteSource = errors.New("no route source")

// EffectiveDistances returns the effective distance per protocol for a
// node after duplicate resolution: when a (node, protocol) pair is
// declared more than once, the lowest distance wins. A declared node
// without any admin-distance facts yields an empty map.
func EffectiveDistances(snap *topology.Snapshot, node string) (map[string]int, error) {
	store := snap.Store()
	if !store.HasNode(node) {
		return nil, fmt.Errorf("%w: node %q", topology.ErrNotFound, node)
	}

	effective := make(map[string]int)
	for _, ad := range store.AdminDistancesOf(node) {
		if current, ok := effective[ad.Protocol]; !ok || ad.Distance < current {
			effective[ad.Protocol] = ad.Distance
		}
	}
	return effective, nil
}

// BestSource returns the protocol with the globally lowest effective
// distance for a node. Ties are broken by declaration order, first
// declared wins, so the result is reproducible from the same feed.
func BestSource(snap *topology.Snapshot, node string) (string, error) {
	store := snap.Store()
	if !store.HasNode(node) {
		return "", fmt.Errorf("%w: node %q", topology.ErrNotFound, node)
	}

	facts := store.AdminDistancesOf(node)
	if len(facts) == 0 {
		return "", fmt.Errorf("%w: node %q", ErrNoRouteSource, node)
	}

	effective := make(map[string]int)
	var order []string
	for _, ad := range facts {
		if current, ok := effective[ad.Protocol]; !ok {
			effective[ad.Protocol] = ad.Distance
			order = append(order, ad.Protocol)
		} else if ad.Distance < current {
			effective[ad.Protocol] = ad.Distance
		}
	}

	best := order[0]
	for _, protocol := range order[1:] {
		// Strictly lower wins; on a tie the earlier declaration stays.
		if effective[protocol] < effective[best] {
			best = protocol
		}
	}
	return best, nil
}
