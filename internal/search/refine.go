package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// QueryGenerator turns a task into a search query.
type QueryGenerator interface {
	GenerateSearchQuery(ctx context.Context, topic, nodeID string) (string, error)
}

// Refined asks a QueryGenerator for a better query before searching. The node
// name is used unchanged when query generation fails.
type Refined struct {
	Searcher  Searcher
	Generator QueryGenerator
	Logger    *slog.Logger
}

// Query returns the refined query for a node, or its name on failure.
func (r *Refined) Query(ctx context.Context, name, nodeID string) string {
	q, err := r.Generator.GenerateSearchQuery(ctx, name, nodeID)
	if err != nil || strings.TrimSpace(q) == "" {
		if r.Logger != nil {
			r.Logger.Debug("search query refinement failed, using node name", "node", nodeID, "error", err)
		}
		return name
	}
	return q
}

// SearchNode refines the query for a node and searches.
func (r *Refined) SearchNode(ctx context.Context, name, nodeID string) []mindmap.Link {
	return r.Searcher.SearchLinks(ctx, r.Query(ctx, name, nodeID))
}

// Direct searches with the node name as the query.
type Direct struct {
	Searcher Searcher
}

// SearchNode implements the node-level search used by enrichment.
func (d Direct) SearchNode(ctx context.Context, name, _ string) []mindmap.Link {
	return d.Searcher.SearchLinks(ctx, name)
}
