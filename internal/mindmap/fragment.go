package mindmap

import (
	"strings"
)

// FlatSubtopic is one entry of the flat wire format produced by the
// generation model. ParentID is nil for entries at the top of the fragment.
type FlatSubtopic struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parentId"`
	Name     string  `json:"name" validate:"required,nonempty"`
	Details  string  `json:"details"`
	Links    []Link  `json:"links"`
}

// Parent returns the declared parent id, or "" when none was given.
func (s FlatSubtopic) Parent() string {
	if s.ParentID == nil {
		return ""
	}
	return strings.TrimSpace(*s.ParentID)
}

// FlatFragment is the wire payload for one generation request.
type FlatFragment struct {
	Topic     string         `json:"topic"`
	Subtopics []FlatSubtopic `json:"subtopics" validate:"required,min=1,dive"`
}

// Validate checks the fragment against the wire schema.
func (f *FlatFragment) Validate() ValidationResult {
	return ValidateStruct(f)
}

// Normalize cleans a parsed fragment in place before reconstruction.
//
// Names are trimmed, link types are mapped onto known values, links without a
// usable URL are dropped and entries without an id get one derived from their
// declared parent (or from expandID when they have none). expandID is the id of
// the node being expanded, or "" for an initial generation.
func (f *FlatFragment) Normalize(expandID string) {
	f.Topic = strings.TrimSpace(f.Topic)
	for i := range f.Subtopics {
		s := &f.Subtopics[i]
		s.Name = strings.TrimSpace(s.Name)
		s.ID = strings.TrimSpace(s.ID)
		if s.ParentID != nil {
			p := strings.TrimSpace(*s.ParentID)
			if p == "" {
				s.ParentID = nil
			} else {
				s.ParentID = &p
			}
		}
		if s.ID == "" {
			parent := s.Parent()
			if parent == "" {
				parent = expandID
			}
			if id, err := DeriveID(parent, s.Name); err == nil {
				s.ID = id
			}
		}
		s.Links = normalizeLinks(s.Links)
	}
}

func normalizeLinks(in []Link) []Link {
	out := make([]Link, 0, len(in))
	for _, l := range in {
		l.URL = strings.TrimSpace(l.URL)
		if !ValidURL(l.URL) {
			continue
		}
		l.Title = strings.TrimSpace(l.Title)
		if l.Title == "" {
			l.Title = l.URL
		}
		l.Type = NormalizeLinkType(string(l.Type))
		out = append(out, l)
	}
	return out
}
