package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/josephgoksu/TaskDivider/internal/config"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// Expander turns a generation request into graftable subtrees. It never
// touches the tree; Session grafts what it returns.
type Expander struct {
	gen     FragmentGenerator
	timeout time.Duration
	logger  *slog.Logger
}

// NewExpander creates an Expander. timeout is clamped to the allowed range.
func NewExpander(gen FragmentGenerator, timeout time.Duration, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{gen: gen, timeout: config.ClampExpansionTimeout(timeout), logger: logger}
}

// Fragment generates and reconstructs the subtrees for topic. nodeID is the
// node being expanded, or "" for an initial generation. Every failure,
// including the timeout, is reported as a *mindmap.GenerationError.
func (e *Expander) Fragment(ctx context.Context, topic, nodeID string, ancestors []string) ([]*mindmap.FragmentNode, error) {
	if e.gen == nil {
		return nil, &mindmap.GenerationError{Topic: topic, NodeID: nodeID, Err: errors.New("no generator configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	frag, err := e.gen.GenerateFragment(ctx, topic, nodeID, ancestors)
	if err != nil {
		var genErr *mindmap.GenerationError
		if !errors.As(err, &genErr) {
			err = &mindmap.GenerationError{Topic: topic, NodeID: nodeID, Err: err}
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e.logger.Warn("expansion timed out", "topic", topic, "node", nodeID, "timeout", e.timeout)
		}
		return nil, err
	}

	rec := mindmap.Reconstruct(frag.Subtopics)
	if len(rec.Duplicates) > 0 || len(rec.CyclesBroken) > 0 {
		e.logger.Warn("repaired fragment", "topic", topic, "node", nodeID,
			"duplicates", rec.Duplicates, "cycles_broken", rec.CyclesBroken)
	}

	roots := spliceTarget(rec.Roots, nodeID)
	e.logger.Debug("fragment reconstructed", "topic", topic, "node", nodeID,
		"entries", len(frag.Subtopics), "roots", len(roots), "took", time.Since(start))
	return roots, nil
}

// spliceTarget replaces a root that restates the expanded node itself with
// its children, so the node is not grafted under itself.
func spliceTarget(roots []*mindmap.FragmentNode, nodeID string) []*mindmap.FragmentNode {
	if nodeID == "" {
		return roots
	}
	out := make([]*mindmap.FragmentNode, 0, len(roots))
	for _, r := range roots {
		if r.WireID == nodeID {
			out = append(out, r.Children...)
			continue
		}
		out = append(out, r)
	}
	return out
}
