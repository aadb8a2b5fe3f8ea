package topology

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/signalsfoundry/topology-engine/internal/logging"
	"github.com/signalsfoundry/topology-engine/model"
)

// Phase tracks the load lifecycle of a Loader.
//
// Empty -> Loading -> Validated -> Ready, or Loading -> Rejected when a
// fatal issue is found. Ready and Rejected are terminal: a fresh load
// always starts a new Loader rather than transitioning back.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoading
	PhaseValidated
	PhaseReady
	PhaseRejected
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseLoading:
		return "loading"
	case PhaseValidated:
		return "validated"
	case PhaseReady:
		return "ready"
	case PhaseRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ErrLoadRejected is the sentinel for a load that failed validation.
var ErrLoadRejected = errors.New("load rejected")

// RejectError reports why a load was rejected. It carries the full
// issue list (errors and warnings) for diagnostics and unwraps to
// ErrLoadRejected plus the sentinel of every fatal issue, so callers
// can classify with errors.Is.
type RejectError struct {
	Issues []Issue
}

func (e *RejectError) Error() string {
	var fatal []string
	for _, issue := range e.Issues {
		if issue.Severity == SeverityError {
			fatal = append(fatal, issue.Message)
		}
	}
	return fmt.Sprintf("%v: %s", ErrLoadRejected, strings.Join(fatal, "; "))
}

func (e *RejectError) Unwrap() []error {
	errs := []error{ErrLoadRejected}
	for _, issue := range e.Issues {
		if issue.Err != nil {
			errs = append(errs, issue.Err)
		}
	}
	return errs
}

// Snapshot is an immutable, fully validated topology produced by one
// load transaction. It may be shared across any number of concurrent
// readers without locking; queries over it are pure.
type Snapshot struct {
	store    *Store
	warnings []Issue
}

// Store exposes the underlying fact tables. Callers must treat the
// result as read-only.
func (s *Snapshot) Store() *Store { return s.store }

// Warnings returns the non-fatal issues collected during validation,
// retained for diagnostics after commit.
func (s *Snapshot) Warnings() []Issue {
	out := make([]Issue, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Loader accumulates a feed of typed fact tuples and commits them as a
// single logical transaction: either every fact is visible in a Ready
// snapshot, or the whole load is rejected. Loaders are single-threaded
// by contract; only the committed Snapshot is safe to share.
type Loader struct {
	phase  Phase
	store  *Store
	issues []Issue
	log    logging.Logger
}

// LoaderOption customises Loader construction.
type LoaderOption func(*Loader)

// WithLogger attaches a structured logger for load-phase events.
func WithLogger(log logging.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader creates a Loader in the Empty phase.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		phase: PhaseEmpty,
		store: NewStore(),
		log:   logging.Noop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Phase returns the loader's current lifecycle phase.
func (l *Loader) Phase() Phase { return l.phase }

// Declare folds one fact into the pending load. A fact that fails
// declare-time validation is recorded as a fatal issue rather than
// aborting, so the rest of the feed can still be checked; the error is
// also returned for callers that want to stop early.
func (l *Loader) Declare(f model.Fact) error {
	switch l.phase {
	case PhaseEmpty:
		l.phase = PhaseLoading
	case PhaseLoading:
	default:
		return fmt.Errorf("%w: cannot declare in phase %s", ErrBadFact, l.phase)
	}

	err := l.store.Declare(f)
	if err == nil {
		return nil
	}

	severity := SeverityError
	code := CodeRejectedFact
	switch {
	case errors.Is(err, ErrUnknownReference):
		code = CodeUnknownNode
		if f.Kind() == model.KindLink {
			code = CodeUnknownInterface
		}
	case errors.Is(err, ErrDuplicateKey):
		code = CodeRejectedFact
	}
	l.issues = append(l.issues, Issue{
		Severity: severity,
		Code:     code,
		Message:  err.Error(),
		Err:      err,
	})
	return err
}

// Commit runs the validation phase and either publishes a Ready
// snapshot or rejects the whole load. After Commit the loader is
// terminal regardless of outcome.
func (l *Loader) Commit(ctx context.Context) (*Snapshot, error) {
	switch l.phase {
	case PhaseEmpty, PhaseLoading:
	default:
		return nil, fmt.Errorf("%w: cannot commit in phase %s", ErrBadFact, l.phase)
	}

	issues := append(l.issues, Validate(l.store)...)
	l.phase = PhaseValidated

	var warnings []Issue
	fatal := 0
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			fatal++
		} else {
			warnings = append(warnings, issue)
		}
	}

	if fatal > 0 {
		l.phase = PhaseRejected
		l.log.Warn(ctx, "topology load rejected",
			logging.Int("errors", fatal),
			logging.Int("warnings", len(warnings)),
		)
		return nil, &RejectError{Issues: issues}
	}

	l.phase = PhaseReady
	l.log.Info(ctx, "topology load committed",
		logging.Int("nodes", len(l.store.nodeOrder)),
		logging.Int("interfaces", len(l.store.ifaceOrder)),
		logging.Int("links", len(l.store.links)),
		logging.Int("warnings", len(warnings)),
	)
	return &Snapshot{store: l.store, warnings: warnings}, nil
}

// Load declares a full feed and commits it in one call.
func Load(ctx context.Context, facts []model.Fact, opts ...LoaderOption) (*Snapshot, error) {
	loader := NewLoader(opts...)
	for _, f := range facts {
		// Declare-time failures are collected; Commit decides.
		_ = loader.Declare(f)
	}
	return loader.Commit(ctx)
}
