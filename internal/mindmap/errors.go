package mindmap

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree and enrichment operations. Typed errors below
// match these through errors.Is.
var (
	// ErrNotFound is returned when an operation references a node id that is
	// not in the tree, typically because it was deleted while a request was in flight.
	ErrNotFound = errors.New("node not found")

	// ErrRootImmutable is returned when deleting the root node.
	ErrRootImmutable = errors.New("root node cannot be deleted")

	// ErrInvalidName is returned when a name slugs to an empty string.
	ErrInvalidName = errors.New("invalid node name")

	// ErrIDCollision is returned by the reject collision policy when two
	// siblings derive the same id.
	ErrIDCollision = errors.New("sibling id collision")

	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrGeneration marks failures of the generation model or unparseable fragments.
	ErrGeneration = errors.New("generation failed")

	// ErrEnrichmentFetch marks failed detail, link or role fetches.
	ErrEnrichmentFetch = errors.New("enrichment fetch failed")

	// ErrPrecondition marks requests made in a state that does not allow them.
	ErrPrecondition = errors.New("precondition not met")

	// ErrInvalidDocument is returned when an imported document violates tree invariants.
	ErrInvalidDocument = errors.New("invalid mindmap document")
)

// GenerationError reports that the generation model failed or returned data
// that could not be turned into a fragment.
type GenerationError struct {
	Topic  string
	NodeID string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("generate subtopics for %q (node %s): %v", e.Topic, e.NodeID, e.Err)
	}
	return fmt.Sprintf("generate subtopics for %q: %v", e.Topic, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// EnrichmentKind names which enrichment fetch failed.
type EnrichmentKind string

const (
	EnrichDetail EnrichmentKind = "detail"
	EnrichLinks  EnrichmentKind = "links"
	EnrichRoles  EnrichmentKind = "roles"
)

// EnrichmentError reports a failed enrichment fetch. The node's state is left
// at its pre-fetch value so the fetch can be retried.
type EnrichmentError struct {
	NodeID string
	Kind   EnrichmentKind
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("fetch %s for node %s: %v", e.Kind, e.NodeID, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

func (e *EnrichmentError) Is(target error) bool { return target == ErrEnrichmentFetch }

// PreconditionError reports a request rejected before any network call.
type PreconditionError struct {
	NodeID string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("node %s: %s", e.NodeID, e.Reason)
}

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// NotFoundError reports which operation referenced a missing node.
type NotFoundError struct {
	NodeID string
	Op     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: node %q not found", e.Op, e.NodeID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(op, id string) error {
	return &NotFoundError{NodeID: id, Op: op}
}
