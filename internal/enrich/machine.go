// Package enrich fetches task detail, evaluation checklists, supporting links
// and role assignments for mindmap nodes on demand.
//
// Each node has three independent tracks (see State). A fetch is issued only
// when its track has not settled, and concurrent requests for the same node
// and track share one call.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// Store is the tree owner the machine reads nodes from and writes results to.
// Epoch identifies the current tree and changes whenever the tree is replaced
// wholesale. UpdateAt applies a patch only while the tree is still at epoch;
// it returns an error matching mindmap.ErrNotFound when the node is gone or
// the tree has been replaced.
type Store interface {
	Node(id string) (*mindmap.Node, error)
	Epoch() uint64
	UpdateAt(epoch uint64, id string, patch mindmap.Patch) error
}

// DetailFetcher produces the task detail and evaluation checklist for a node.
type DetailFetcher interface {
	GenerateDetail(ctx context.Context, topic, nodeID string) (string, []string, error)
}

// LinkFinder searches supporting links for a node. It never fails; an empty
// result leaves the node without links.
type LinkFinder interface {
	SearchNode(ctx context.Context, name, nodeID string) []mindmap.Link
}

// RoleGenerator produces role assignments from a task detail and checklist.
type RoleGenerator interface {
	GenerateRoles(ctx context.Context, taskDetail string, checklist []string) ([]mindmap.RoleAssignment, error)
}

// Config wires the collaborators. Links may be nil to disable link search.
type Config struct {
	Detail DetailFetcher
	Links  LinkFinder
	Roles  RoleGenerator
	Logger *slog.Logger
}

// Machine runs enrichment fetches against a Store.
type Machine struct {
	store  Store
	detail DetailFetcher
	links  LinkFinder
	roles  RoleGenerator
	logger *slog.Logger

	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]int
}

// New creates a Machine.
func New(store Store, cfg Config) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		store:    store,
		detail:   cfg.Detail,
		links:    cfg.Links,
		roles:    cfg.Roles,
		logger:   logger.With("component", "enrich"),
		inflight: make(map[string]int),
	}
}

func flightKey(kind mindmap.EnrichmentKind, epoch uint64, id string) string {
	return fmt.Sprintf("%s:%d:%s", kind, epoch, id)
}

// nodeAt reads id from the tree at epoch.
func (m *Machine) nodeAt(epoch uint64, id string) (*mindmap.Node, error) {
	if m.store.Epoch() != epoch {
		return nil, &mindmap.NotFoundError{NodeID: id, Op: "enrich"}
	}
	return m.store.Node(id)
}

// State reports the node's enrichment state, including fetches in flight.
func (m *Machine) State(id string) (State, error) {
	epoch := m.store.Epoch()
	n, err := m.store.Node(id)
	if err != nil {
		return State{}, err
	}
	s := stateOf(n)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Detail != Fetched && m.inflight[flightKey(mindmap.EnrichDetail, epoch, id)] > 0 {
		s.Detail = Fetching
	}
	if s.Links != HasLinks && m.inflight[flightKey(mindmap.EnrichLinks, epoch, id)] > 0 {
		s.Links = FetchingLinks
	}
	if s.Roles != HasRoles && m.inflight[flightKey(mindmap.EnrichRoles, epoch, id)] > 0 {
		s.Roles = GeneratingRoles
	}
	return s, nil
}

// Select is the node interaction trigger. It fetches task detail and
// checklist unless they are already present, then searches links when the
// node has none. A failed link search is not an error and is retried on the
// next Select. Results that land after the tree was replaced are dropped.
func (m *Machine) Select(ctx context.Context, id string) error {
	epoch := m.store.Epoch()
	n, err := m.nodeAt(epoch, id)
	if err != nil {
		return err
	}

	if !n.HasDetail() {
		if m.detail == nil {
			return &mindmap.EnrichmentError{NodeID: id, Kind: mindmap.EnrichDetail, Err: errors.New("no detail generator configured")}
		}
		gone, err := m.fetchDetail(ctx, epoch, id, n.Name)
		if err != nil {
			return err
		}
		if gone {
			return nil
		}
		if n, err = m.nodeAt(epoch, id); err != nil {
			return m.dropIfGone(mindmap.EnrichDetail, id, err)
		}
	}

	if len(n.Links) == 0 && m.links != nil {
		return m.fetchLinks(ctx, epoch, id, n.Name)
	}
	return nil
}

// GenerateRoles generates role assignments for a node whose detail has been
// fetched. Nodes that already have roles are left as they are.
func (m *Machine) GenerateRoles(ctx context.Context, id string) error {
	epoch := m.store.Epoch()
	n, err := m.nodeAt(epoch, id)
	if err != nil {
		return err
	}
	if !n.HasDetail() || n.EvaluationChecklist == nil {
		return &mindmap.PreconditionError{NodeID: id, Reason: "task detail and checklist must be fetched before generating roles"}
	}
	if n.HasRoles() {
		m.logger.Debug("roles already generated", "node", id)
		return nil
	}
	if m.roles == nil {
		return &mindmap.EnrichmentError{NodeID: id, Kind: mindmap.EnrichRoles, Err: errors.New("no role generator configured")}
	}

	_, err = m.do(mindmap.EnrichRoles, epoch, id, func() (any, error) {
		cur, err := m.nodeAt(epoch, id)
		if err != nil {
			return nil, m.dropIfGone(mindmap.EnrichRoles, id, err)
		}
		if cur.HasRoles() {
			return nil, nil
		}
		if !cur.HasDetail() {
			return nil, &mindmap.PreconditionError{NodeID: id, Reason: "task detail was cleared before roles were generated"}
		}
		roles, err := m.roles.GenerateRoles(ctx, *cur.TaskDetail, cur.EvaluationChecklist)
		if err != nil {
			m.logger.Warn("role generation failed", "node", id, "error", err)
			return nil, &mindmap.EnrichmentError{NodeID: id, Kind: mindmap.EnrichRoles, Err: err}
		}
		if roles == nil {
			roles = []mindmap.RoleAssignment{}
		}
		if err := m.store.UpdateAt(epoch, id, mindmap.Patch{RRData: &roles}); err != nil {
			return nil, m.dropIfGone(mindmap.EnrichRoles, id, err)
		}
		m.logger.Debug("roles generated", "node", id, "count", len(roles))
		return nil, nil
	})
	return err
}

// fetchDetail reports gone=true when the node was deleted, or the tree
// replaced, while the fetch was in flight.
func (m *Machine) fetchDetail(ctx context.Context, epoch uint64, id, name string) (gone bool, err error) {
	v, err := m.do(mindmap.EnrichDetail, epoch, id, func() (any, error) {
		cur, err := m.nodeAt(epoch, id)
		if err != nil {
			return true, m.dropIfGone(mindmap.EnrichDetail, id, err)
		}
		if cur.HasDetail() {
			return false, nil
		}
		detail, checklist, err := m.detail.GenerateDetail(ctx, name, id)
		if err != nil {
			m.logger.Warn("detail fetch failed", "node", id, "error", err)
			return false, &mindmap.EnrichmentError{NodeID: id, Kind: mindmap.EnrichDetail, Err: err}
		}
		if checklist == nil {
			checklist = []string{}
		}
		if err := m.store.UpdateAt(epoch, id, mindmap.Patch{TaskDetail: &detail, EvaluationChecklist: &checklist}); err != nil {
			return errors.Is(err, mindmap.ErrNotFound), m.dropIfGone(mindmap.EnrichDetail, id, err)
		}
		m.logger.Debug("detail fetched", "node", id, "checklist", len(checklist))
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (m *Machine) fetchLinks(ctx context.Context, epoch uint64, id, name string) error {
	_, err := m.do(mindmap.EnrichLinks, epoch, id, func() (any, error) {
		cur, err := m.nodeAt(epoch, id)
		if err != nil {
			return nil, m.dropIfGone(mindmap.EnrichLinks, id, err)
		}
		if len(cur.Links) > 0 {
			return nil, nil
		}
		links := m.links.SearchNode(ctx, name, id)
		if len(links) == 0 {
			m.logger.Debug("no links found", "node", id)
			return nil, nil
		}
		if err := m.store.UpdateAt(epoch, id, mindmap.Patch{Links: &links}); err != nil {
			return nil, m.dropIfGone(mindmap.EnrichLinks, id, err)
		}
		m.logger.Debug("links fetched", "node", id, "count", len(links))
		return nil, nil
	})
	return err
}

// do runs fn once per in-flight key and marks the track as fetching meanwhile.
func (m *Machine) do(kind mindmap.EnrichmentKind, epoch uint64, id string, fn func() (any, error)) (any, error) {
	key := flightKey(kind, epoch, id)
	v, err, shared := m.group.Do(key, func() (any, error) {
		m.mu.Lock()
		m.inflight[key]++
		m.mu.Unlock()
		defer func() {
			m.mu.Lock()
			if m.inflight[key]--; m.inflight[key] <= 0 {
				delete(m.inflight, key)
			}
			m.mu.Unlock()
		}()
		return fn()
	})
	if shared {
		m.logger.Debug("coalesced enrichment request", "node", id, "kind", kind)
	}
	return v, err
}

func (m *Machine) dropIfGone(kind mindmap.EnrichmentKind, id string, err error) error {
	if errors.Is(err, mindmap.ErrNotFound) {
		m.logger.Warn("node deleted during enrichment, discarding result", "node", id, "kind", kind)
		return nil
	}
	return fmt.Errorf("store %s for %s: %w", kind, id, err)
}
