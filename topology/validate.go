package topology

import (
	"fmt"
)

// Severity classifies a validation issue. Errors block the commit;
// warnings are retained on the committed snapshot for diagnostics.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	default:
		return "warning"
	}
}

// Issue codes emitted by Validate and by declare-time rejection.
const (
	CodeUnknownNode       = "unknown-node"
	CodeUnknownInterface  = "unknown-interface"
	CodeAsymmetricLink    = "asymmetric-link"
	CodeDuplicateDistance = "duplicate-admin-distance"
	CodeRejectedFact      = "rejected-fact"
)

// Issue describes one data-quality finding from the validation phase.
type Issue struct {
	Severity Severity
	Code     string
	Message  string

	// Err carries the sentinel classification for fatal issues so
	// callers can use errors.Is on a rejected load. Nil for warnings.
	Err error
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s]: %s", i.Severity, i.Code, i.Message)
}

// Validate runs the consistency checks over a fully declared store and
// returns the issues found, in check order and, within a check, in
// declaration order of the offending fact.
//
// Checks 1, 2, and 5 re-establish referential integrity over the folded
// tables; with a store populated exclusively through Declare they cannot
// fire, but a two-phase load keeps them so a partially rejected feed is
// still fully checked before commit.
func Validate(s *Store) []Issue {
	var issues []Issue

	// 1) Every interface's owning node must exist.
	for _, id := range s.Interfaces() {
		iface := s.interfaces[id]
		if !s.HasNode(iface.NodeID) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     CodeUnknownNode,
				Message:  fmt.Sprintf("interface %q belongs to undeclared node %q", id, iface.NodeID),
				Err:      ErrUnknownReference,
			})
		}
	}

	// 2) Every link endpoint must be a declared interface.
	for _, l := range s.links {
		for _, endpoint := range []string{l.A, l.B} {
			if _, ok := s.interfaces[endpoint]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     CodeUnknownInterface,
					Message:  fmt.Sprintf("link (%q, %q) references undeclared interface %q", l.A, l.B, endpoint),
					Err:      ErrUnknownReference,
				})
			}
		}
	}

	// 3) Link symmetry. A declared Link(a,b) without the reciprocal
	// Link(b,a) is a warning, not a failure: real-world feeds may be
	// one-sided, and guessing intent to auto-repair is avoided.
	warned := make(map[[2]string]bool)
	for _, l := range s.links {
		if s.declaredPairs[[2]string{l.B, l.A}] {
			continue
		}
		a, b := l.Canonical()
		key := [2]string{a, b}
		if warned[key] {
			continue
		}
		warned[key] = true
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeAsymmetricLink,
			Message:  fmt.Sprintf("link (%q, %q) has no reciprocal declaration", l.A, l.B),
		})
	}

	// 4) Duplicate (node, protocol) admin distances with differing
	// values. The lowest distance wins per the standard convention;
	// the conflict itself stays visible.
	type adKey struct{ node, protocol string }
	lowest := make(map[adKey]int)
	conflicting := make(map[adKey]bool)
	var conflictOrder []adKey
	for _, ad := range s.adminDistances {
		key := adKey{ad.NodeID, ad.Protocol}
		prev, seen := lowest[key]
		if !seen {
			lowest[key] = ad.Distance
			continue
		}
		if ad.Distance != prev && !conflicting[key] {
			conflicting[key] = true
			conflictOrder = append(conflictOrder, key)
		}
		if ad.Distance < prev {
			lowest[key] = ad.Distance
		}
	}
	for _, key := range conflictOrder {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeDuplicateDistance,
			Message: fmt.Sprintf("node %q declares protocol %q more than once with differing distances; using %d",
				key.node, key.protocol, lowest[key]),
		})
	}

	// 5) Every network's owning node must exist. Fatal: an unreachable
	// network record means the feed is inconsistent beyond repair.
	for _, n := range s.networks {
		if !s.HasNode(n.NodeID) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     CodeUnknownNode,
				Message:  fmt.Sprintf("network %q references undeclared node %q", n.NetID, n.NodeID),
				Err:      ErrUnknownReference,
			})
		}
	}

	return issues
}
