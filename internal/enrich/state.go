package enrich

import "github.com/josephgoksu/TaskDivider/internal/mindmap"

// DetailState tracks the task detail and checklist of a node.
type DetailState int

const (
	Unfetched DetailState = iota
	Fetching
	Fetched
)

func (s DetailState) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Fetched:
		return "fetched"
	default:
		return "unfetched"
	}
}

// LinkState tracks supporting links.
type LinkState int

const (
	NoLinks LinkState = iota
	FetchingLinks
	HasLinks
)

func (s LinkState) String() string {
	switch s {
	case FetchingLinks:
		return "fetching"
	case HasLinks:
		return "has_links"
	default:
		return "no_links"
	}
}

// RoleState tracks role and responsibility data.
type RoleState int

const (
	NoRoles RoleState = iota
	GeneratingRoles
	HasRoles
)

func (s RoleState) String() string {
	switch s {
	case GeneratingRoles:
		return "generating"
	case HasRoles:
		return "has_roles"
	default:
		return "no_roles"
	}
}

// State is the enrichment state of one node. Each track is independent.
type State struct {
	Detail DetailState `json:"detail"`
	Links  LinkState   `json:"links"`
	Roles  RoleState   `json:"roles"`
}

// MarshalText lets State print compactly in logs.
func (s State) MarshalText() ([]byte, error) {
	return []byte("detail=" + s.Detail.String() + " links=" + s.Links.String() + " roles=" + s.Roles.String()), nil
}

// stateOf derives the settled state from the node's fields. In-flight
// requests are layered on top by the Machine.
func stateOf(n *mindmap.Node) State {
	var s State
	if n.HasDetail() {
		s.Detail = Fetched
	}
	if len(n.Links) > 0 {
		s.Links = HasLinks
	}
	if n.HasRoles() {
		s.Roles = HasRoles
	}
	return s
}
