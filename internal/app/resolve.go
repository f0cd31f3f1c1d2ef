package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// ResolveNode maps a user reference onto a node id. An exact id wins, then a
// case-insensitive name match, then the single best fuzzy match on names.
// Ties are reported as an error listing the candidates.
func ResolveNode(t *mindmap.Tree, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("node reference is empty")
	}
	if t.Contains(ref) {
		return ref, nil
	}

	ids := t.IDs()
	names := make([]string, len(ids))
	var exact []string
	for i, id := range ids {
		n, _ := t.Node(id)
		names[i] = n.Name
		if strings.EqualFold(n.Name, ref) {
			exact = append(exact, id)
		}
	}
	switch len(exact) {
	case 0:
	case 1:
		return exact[0], nil
	default:
		return "", ambiguous(ref, exact)
	}

	matches := fuzzy.Find(ref, names)
	if len(matches) == 0 {
		return "", &mindmap.NotFoundError{NodeID: ref, Op: "resolve"}
	}
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		var tied []string
		for _, m := range matches {
			if m.Score != matches[0].Score {
				break
			}
			tied = append(tied, ids[m.Index])
		}
		return "", ambiguous(ref, tied)
	}
	return ids[matches[0].Index], nil
}

func ambiguous(ref string, ids []string) error {
	if len(ids) > 5 {
		ids = append(ids[:5:5], "...")
	}
	return fmt.Errorf("%q matches several nodes: %s; use a node id", ref, strings.Join(ids, ", "))
}

// Resolve maps ref onto a node id in the current tree.
func (s *Session) Resolve(ref string) (string, error) {
	t, _, err := s.current()
	if err != nil {
		return "", err
	}
	return ResolveNode(t, ref)
}
