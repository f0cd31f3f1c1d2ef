package mindmap

import (
	"fmt"
	"regexp"
	"strings"
)

// IDSeparator joins a parent id and a child slug.
const IDSeparator = "-"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slug collapses every whitespace run in name to a single hyphen.
// Leading and trailing whitespace is dropped first, so "  Data  Structures "
// becomes "Data-Structures".
func Slug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(name), IDSeparator)
}

// DeriveID returns the deterministic id for a node named name under parentID.
// An empty parentID denotes the root. Names that slug to nothing are rejected
// since they would collapse onto the parent's id.
//
//	DeriveID("", "Data Structures")              → "Data-Structures"
//	DeriveID("Data-Structures", "Arrays")        → "Data-Structures-Arrays"
func DeriveID(parentID, name string) (string, error) {
	slug := Slug(name)
	if slug == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if parentID == "" {
		return slug, nil
	}
	return parentID + IDSeparator + slug, nil
}

// suffixedID appends a numeric disambiguator used by the suffix collision policy.
func suffixedID(id string, n int) string {
	return fmt.Sprintf("%s%s%d", id, IDSeparator, n)
}
