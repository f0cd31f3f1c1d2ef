package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/josephgoksu/TaskDivider/internal/enrich"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// ErrNoMindmap is returned by operations that need a tree before one has
// been generated or loaded.
var ErrNoMindmap = errors.New("no mindmap generated or loaded")

// ExpandConcurrency bounds parallel expansions in ExpandAll.
const ExpandConcurrency = 4

// Export formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
)

// Session owns one mindmap. Tree mutations are serialized; generation and
// enrichment requests run outside the lock, so requests for different nodes
// proceed concurrently.
type Session struct {
	ID string

	policy   mindmap.Policy
	expander *Expander
	enricher *enrich.Machine
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	tree *mindmap.Tree
	// epoch changes whenever the tree is replaced wholesale, so results
	// computed against an earlier tree are discarded.
	epoch uint64
}

// NewSession creates an empty session.
func NewSession(c *Context) *Session {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		ID:     uuid.NewString(),
		policy: c.Options.Policy,
		now:    time.Now,
	}
	s.logger = logger.With("component", "app", "session", s.ID)
	s.expander = NewExpander(c.Generator, c.Options.ExpansionTimeout, s.logger)
	s.enricher = enrich.New(s, enrich.Config{Detail: c.Detail, Links: c.Links, Roles: c.Roles, Logger: logger})
	return s
}

// Generate replaces the session's tree with a fresh breakdown of topic. When
// generation fails the tree holds the topic root with a single error node,
// and the *mindmap.GenerationError is returned as well.
//
// The topic root is visible while the model runs. Committing the result
// starts a new epoch, so edits, expansions and enrichment made against that
// interim root are discarded.
func (s *Session) Generate(ctx context.Context, topic string) error {
	tree, err := mindmap.New(topic, s.policy)
	if err != nil {
		return err
	}
	interim := tree
	epoch := s.replace(interim)

	roots, genErr := s.expander.Fragment(ctx, tree.Topic(), "", nil)
	if genErr == nil {
		var graftErr error
		if tree, _, graftErr = tree.Graft(tree.RootID(), roots); graftErr != nil {
			genErr = &mindmap.GenerationError{Topic: tree.Topic(), Err: graftErr}
		}
	}
	if genErr != nil {
		s.logger.Warn("initial generation failed", "topic", tree.Topic(), "error", genErr)
		tree, _, _ = tree.Graft(tree.RootID(), mindmap.ErrorFragment())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Warn("session replaced during generation, discarding result", "topic", tree.Topic())
		return genErr
	}
	if s.tree != interim {
		s.logger.Warn("discarding edits made during generation", "topic", tree.Topic())
	}
	s.tree = tree
	s.epoch++
	s.logger.Info("mindmap generated", "topic", tree.Topic(), "nodes", tree.Len())
	return genErr
}

// Load replaces the session's tree with the one in doc.
func (s *Session) Load(doc *mindmap.Document) error {
	tree, err := doc.Tree(s.policy)
	if err != nil {
		return err
	}
	s.replace(tree)
	return nil
}

// Import reads a JSON document and loads it.
func (s *Session) Import(r io.Reader) error {
	doc, err := mindmap.ReadJSON(r)
	if err != nil {
		return err
	}
	return s.Load(doc)
}

// Reset discards the tree.
func (s *Session) Reset() {
	s.replace(nil)
}

func (s *Session) replace(tree *mindmap.Tree) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = tree
	s.epoch++
	return s.epoch
}

// Tree returns the current tree, or nil. The returned value never changes;
// later edits produce a new tree.
func (s *Session) Tree() *mindmap.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

func (s *Session) current() (*mindmap.Tree, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return nil, 0, ErrNoMindmap
	}
	return s.tree, s.epoch, nil
}

// Snapshot returns a nested copy of the tree.
func (s *Session) Snapshot() (*mindmap.Node, error) {
	t, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return t.Snapshot(), nil
}

// Version returns the tree version, or 0 without a tree.
func (s *Session) Version() uint64 {
	t := s.Tree()
	if t == nil {
		return 0
	}
	return t.Version()
}

// Expand generates children for id and grafts them. On failure the tree is
// unchanged and a *mindmap.GenerationError is returned. If id is deleted or
// the tree replaced while the request is in flight, the result is dropped.
func (s *Session) Expand(ctx context.Context, id string) error {
	t, epoch, err := s.current()
	if err != nil {
		return err
	}
	n, err := t.Node(id)
	if err != nil {
		return err
	}
	ancestors, err := path(t, id)
	if err != nil {
		return err
	}

	roots, err := s.expander.Fragment(ctx, n.Name, id, ancestors)
	if err != nil {
		s.logger.Warn("expansion failed", "node", id, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil || s.epoch != epoch {
		s.logger.Warn("session replaced during expansion, discarding result", "node", id)
		return nil
	}
	next, res, err := s.tree.Graft(id, roots)
	if err != nil {
		if errors.Is(err, mindmap.ErrNotFound) {
			s.logger.Warn("node deleted during expansion, discarding result", "node", id)
			return nil
		}
		return &mindmap.GenerationError{Topic: n.Name, NodeID: id, Err: err}
	}
	s.tree = next
	s.logger.Debug("node expanded", "node", id, "added", len(res.Added), "merged", len(res.Merged), "version", next.Version())
	return nil
}

// ExpandAll expands every leaf, level by level, depth times. Leaves of one
// level are expanded concurrently. Failed expansions do not stop the others;
// their errors are joined.
func (s *Session) ExpandAll(ctx context.Context, depth int) error {
	var errs []error
	for level := 1; level <= depth; level++ {
		t, _, err := s.current()
		if err != nil {
			return err
		}
		leaves := t.Leaves()

		var mu sync.Mutex
		var g errgroup.Group
		g.SetLimit(ExpandConcurrency)
		for _, id := range leaves {
			g.Go(func() error {
				if err := s.Expand(ctx, id); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		s.logger.Info("expanded level", "level", level, "leaves", len(leaves), "nodes", s.Tree().Len())
	}
	return errors.Join(errs...)
}

// path returns the names from the root down to id.
func path(t *mindmap.Tree, id string) ([]string, error) {
	var names []string
	for cur := id; cur != ""; {
		n, err := t.Node(cur)
		if err != nil {
			return nil, err
		}
		names = append(names, n.Name)
		cur = n.ParentID
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names, nil
}

// SelectNode fetches the node's task detail and checklist on first selection,
// then searches links for it when it has none.
func (s *Session) SelectNode(ctx context.Context, id string) error {
	return s.enricher.Select(ctx, id)
}

// GenerateRolesForNode generates role assignments. The node's detail must
// have been fetched.
func (s *Session) GenerateRolesForNode(ctx context.Context, id string) error {
	return s.enricher.GenerateRoles(ctx, id)
}

// NodeState reports the enrichment state of a node.
func (s *Session) NodeState(id string) (enrich.State, error) {
	return s.enricher.State(id)
}

// Node returns a copy of one node.
func (s *Session) Node(id string) (*mindmap.Node, error) {
	t, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return t.Node(id)
}

// Update applies patch to one node.
func (s *Session) Update(id string, patch mindmap.Patch) error {
	return s.UpdateAt(s.Epoch(), id, patch)
}

// Epoch identifies the current tree. It changes whenever the tree is
// replaced wholesale by Generate, Load, Import or Reset.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// UpdateAt applies patch to one node only while the tree is still at epoch.
// A stale epoch is reported as a missing node.
func (s *Session) UpdateAt(epoch uint64, id string, patch mindmap.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return ErrNoMindmap
	}
	if s.epoch != epoch {
		return &mindmap.NotFoundError{NodeID: id, Op: "update"}
	}
	next, err := s.tree.Update(id, patch)
	if err != nil {
		return err
	}
	s.tree = next
	return nil
}

// UpdateNodeFields applies a user edit such as a rename or status change.
func (s *Session) UpdateNodeFields(id string, patch mindmap.Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	return s.Update(id, patch)
}

// EditChecklist adds, removes or replaces one evaluation checklist item.
func (s *Session) EditChecklist(id string, op mindmap.ChecklistOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return ErrNoMindmap
	}
	n, err := s.tree.Node(id)
	if err != nil {
		return err
	}
	items, err := mindmap.ApplyChecklist(n.EvaluationChecklist, op)
	if err != nil {
		return err
	}
	next, err := s.tree.Update(id, mindmap.Patch{EvaluationChecklist: &items})
	if err != nil {
		return err
	}
	s.tree = next
	return nil
}

// DeleteNode removes id and its descendants and returns the removed ids.
func (s *Session) DeleteNode(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return nil, ErrNoMindmap
	}
	next, removed, err := s.tree.Delete(id)
	if err != nil {
		return nil, err
	}
	s.tree = next
	s.logger.Debug("node deleted", "node", id, "removed", len(removed))
	return removed, nil
}

// Document returns the full-fidelity export of the tree.
func (s *Session) Document() (*mindmap.Document, error) {
	t, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return mindmap.NewDocument(t, s.now()), nil
}

// Export writes the tree in format: json, markdown (md) or yaml (yml).
func (s *Session) Export(w io.Writer, format string) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	switch NormalizeFormat(format) {
	case FormatJSON:
		return doc.WriteJSON(w)
	case FormatYAML:
		return doc.WriteYAML(w)
	case FormatMarkdown:
		return mindmap.WriteMarkdown(w, doc.Root)
	default:
		return fmt.Errorf("unsupported export format %q (json, markdown, yaml)", format)
	}
}

// NormalizeFormat maps format aliases onto the Format constants. Unknown
// formats are returned lower-cased.
func NormalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "json":
		return FormatJSON
	case "md", "markdown":
		return FormatMarkdown
	case "yml", "yaml":
		return FormatYAML
	default:
		return f
	}
}

// FormatExtension returns the file extension for a normalized format.
func FormatExtension(format string) string {
	switch NormalizeFormat(format) {
	case FormatMarkdown:
		return "md"
	case FormatYAML:
		return "yaml"
	default:
		return "json"
	}
}
